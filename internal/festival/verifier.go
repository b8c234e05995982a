package festival

import (
	"context"
)

// CredentialVerifier checks a supplied secret against a festival credential.
// On success it returns the credential so the caller has the rotation token
// without a second round-trip; on mismatch it returns ErrBadSecret.
//
// Two implementations exist on purpose. With LocalVerifier the secret is
// fetched to the caller and compared in-process, which means the secret
// travels to the client. RemoteVerifier
// keeps the comparison server-side. Swapping them changes the trust
// boundary, not the contract.
type CredentialVerifier interface {
	Verify(ctx context.Context, code string, kind Kind, secret string) (Credential, error)
}

// LocalVerifier fetches the credential from its source and compares
// locally. Exact string match, case-sensitive.
type LocalVerifier struct {
	Source CredentialStore
}

func (v LocalVerifier) Verify(ctx context.Context, code string, kind Kind, secret string) (Credential, error) {
	cred, err := v.Source.Credential(ctx, code, kind)
	if err != nil {
		return Credential{}, err
	}
	if !cred.RequiresPassword {
		// No password wall: any attempt passes, mirroring the tenant flag
		// taking precedence over the stored secret.
		return cred, nil
	}
	if cred.Secret != secret {
		return Credential{}, ErrBadSecret
	}
	return cred, nil
}
