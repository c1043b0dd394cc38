package driven

// CredentialProvider resolves per-source API credentials by name.
// Storage and rotation of credentials are the provider's concern.
type CredentialProvider interface {
	// Lookup returns the credential and whether it is set and non-empty.
	Lookup(name string) (string, bool)
}
