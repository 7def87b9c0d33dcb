package config

import (
	"errors"
	"fmt"

	"xdao.co/skipproof/chainstore"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/casregistry"
)

// OpenStore opens the configured backends through casregistry. Callers
// still need to link the desired backends, usually via blank imports.
//
// If preferred is non-empty, that backend moves to the front, so it takes
// writes under the "first" write policy and is read first.
func (c *Config) OpenStore(preferred string) (*chainstore.Store, func() error, error) {
	if len(c.Storage.Backends) == 0 {
		return nil, nil, storage.ErrNoBackends
	}
	policy, err := storage.ParseWritePolicy(c.Storage.WritePolicy)
	if err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Storage.Backends...)
	if preferred != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferred || ordered[i].ID == preferred {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("config: preferred backend %q not configured", preferred)
		}
		b := ordered[idx]
		copy(ordered[1:idx+1], ordered[0:idx])
		ordered[0] = b
	}

	multi := &storage.MultiCAS{Policy: policy}
	for _, b := range ordered {
		settings := make(map[string]string, len(b.Config))
		for k, v := range b.Config {
			settings[k] = v
		}
		for _, k := range []string{"dir", "path"} {
			if v, ok := settings[k]; ok {
				settings[k] = c.resolve(v)
			}
		}
		cas, err := casregistry.Open(b.Name, settings)
		if err != nil {
			return nil, nil, errors.Join(err, multi.Close())
		}
		multi.Backends = append(multi.Backends, storage.NamedCAS{Name: b.id(), CAS: cas})
	}

	if len(multi.Backends) == 1 {
		only := multi.Backends[0].CAS
		return chainstore.New(only), func() error {
			if cl, ok := only.(storage.Closer); ok {
				return cl.Close()
			}
			return nil
		}, nil
	}
	return chainstore.New(multi), multi.Close, nil
}
