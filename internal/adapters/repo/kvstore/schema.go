package kvstore

import "fmt"

const currentSchemaVersion = 1

type credentialsFileSchema struct {
	Version     int                `toml:"version"`
	Credentials []credentialSchema `toml:"credentials"`
}

func (s *credentialsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	for i := range s.Credentials {
		if s.Credentials[i].Status == "" {
			s.Credentials[i].Status = "active"
		}
	}
}

func (s credentialsFileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported credentials schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type credentialSchema struct {
	Key      string `toml:"key"`
	Provider string `toml:"provider"`
	Status   string `toml:"status"`
}
