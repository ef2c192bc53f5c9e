package domain

import "strings"

// Pool is the ordered credential collection a run rotates through. It mutates
// member status only; persisting the members after a mutation is the caller's
// job.
type Pool struct {
	Credentials []Credential
}

func NewPool(credentials []Credential) *Pool {
	pool := &Pool{Credentials: credentials}
	pool.Normalize()
	return pool
}

// Active returns the members with status Active, in pool order.
func (p *Pool) Active() []Credential {
	active := make([]Credential, 0, len(p.Credentials))
	for _, credential := range p.Credentials {
		if credential.Status == CredentialActive {
			active = append(active, credential)
		}
	}
	return active
}

// ActiveFor filters Active to one provider. An empty provider matches all.
func (p *Pool) ActiveFor(provider Provider) []Credential {
	if provider == "" {
		return p.Active()
	}

	active := make([]Credential, 0, len(p.Credentials))
	for _, credential := range p.Credentials {
		if credential.Status == CredentialActive && credential.Provider == provider {
			active = append(active, credential)
		}
	}
	return active
}

// MarkDegraded transitions the member with the given key from Active to
// Degraded. Idempotent; unknown keys are ignored.
func (p *Pool) MarkDegraded(key string) {
	for i := range p.Credentials {
		if p.Credentials[i].Key == key {
			p.Credentials[i].Status = CredentialDegraded
			return
		}
	}
}

// MarkActive transitions one member back to Active. There is no automatic
// expiry of the Degraded status; this is the manual recovery path.
func (p *Pool) MarkActive(key string) {
	for i := range p.Credentials {
		if p.Credentials[i].Key == key {
			p.Credentials[i].Status = CredentialActive
			return
		}
	}
}

// ResetDegraded transitions every Degraded member back to Active.
func (p *Pool) ResetDegraded() {
	for i := range p.Credentials {
		if p.Credentials[i].Status == CredentialDegraded {
			p.Credentials[i].Status = CredentialActive
		}
	}
}

// Normalize drops members with empty keys and duplicate keys, keeping the
// first occurrence and pool order.
func (p *Pool) Normalize() {
	if p == nil {
		return
	}

	credentials := make([]Credential, 0, len(p.Credentials))
	seen := make(map[string]struct{}, len(p.Credentials))
	for _, credential := range p.Credentials {
		key := strings.TrimSpace(credential.Key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		credential.Key = key
		if credential.Status == "" {
			credential.Status = CredentialActive
		}
		credentials = append(credentials, credential)
	}

	p.Credentials = credentials
}
