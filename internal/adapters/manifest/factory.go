package manifest

import (
	"github.com/threecrickets/resolve/internal/core/domain"
	"go.trai.ch/zerr"
)

// Type is the logical repository type name this package registers under.
const Type = "manifest"

// Factory builds a manifest Repository from a {type: manifest, id, file}
// configuration block, for use with ports.RepositoryRegistry.
func Factory(config map[string]any) (domain.Repository, error) {
	id, _ := config["id"].(string)
	if id == "" {
		id = Type
	}
	file, _ := config["file"].(string)
	if file == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "manifest repository missing file"), "id", id)
	}
	repo, err := Load(id, file)
	if err != nil {
		return nil, zerr.With(err, "id", id)
	}
	return repo, nil
}
