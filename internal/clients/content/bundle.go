package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/lumo-engine/internal/domain"
)

var errNotBundled = errors.New("not bundled")

func IsNotBundled(err error) bool { return errors.Is(err, errNotBundled) }

// Bundle reads lesson packages and unit manifests shipped on-device under
// dir: lessons/<id>.yaml and units/<id>.yaml (.json accepted for both).
type Bundle struct {
	dir string
}

func NewBundle(dir string) *Bundle {
	if dir == "" {
		return nil
	}
	return &Bundle{dir: dir}
}

func (b *Bundle) LessonPackage(lessonID uuid.UUID) (*domain.LessonPackage, error) {
	var pkg domain.LessonPackage
	if err := b.read(filepath.Join("lessons", lessonID.String()), &pkg); err != nil {
		return nil, err
	}
	if pkg.LessonID == uuid.Nil {
		pkg.LessonID = lessonID
	}
	return &pkg, nil
}

func (b *Bundle) UnitManifest(unitID uuid.UUID) (*domain.UnitManifest, error) {
	var manifest domain.UnitManifest
	if err := b.read(filepath.Join("units", unitID.String()), &manifest); err != nil {
		return nil, err
	}
	if manifest.UnitID == uuid.Nil {
		manifest.UnitID = unitID
	}
	return &manifest, nil
}

func (b *Bundle) read(rel string, out any) error {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(b.dir, rel+ext)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read bundle file %s: %w", path, err)
		}
		if ext == ".json" {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode bundle file %s: %w", path, err)
			}
			return nil
		}
		if err := yaml.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode bundle file %s: %w", path, err)
		}
		return nil
	}
	return errNotBundled
}
