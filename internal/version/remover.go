package version

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/sdkswitch/internal/storage"
	"github.com/liangyou/sdkswitch/pkg/models"
)

// Remover 删除本地已安装的 SDK 版本。
type Remover struct {
	store *storage.Store
}

// NewRemover 创建 Remover。
func NewRemover(store *storage.Store) *Remover {
	return &Remover{store: store}
}

// Remove 按部分版本号删除已安装版本。被删除的版本恰好是激活版本时，
// 激活软链一并删除，之后 Active 报告没有激活版本，而不是留下悬空软链。
func (r *Remover) Remove(partial string) (models.InstalledSDK, error) {
	if r.store == nil {
		return models.InstalledSDK{}, errors.New("remover: store is required")
	}

	sdk, err := r.store.Find(partial)
	if err != nil {
		return models.InstalledSDK{}, err
	}

	wasActive := false
	if active, err := r.store.Active(); err == nil {
		wasActive = active.Version == sdk.Version
	}

	if err := os.RemoveAll(sdk.Path); err != nil {
		return models.InstalledSDK{}, fmt.Errorf("remover: remove dir: %w", err)
	}

	if wasActive {
		if err := os.Remove(r.store.LinkPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return models.InstalledSDK{}, fmt.Errorf("remover: remove link: %w", err)
		}
		logrus.WithField("version", sdk.Version).Debug("removed active link")
	}

	return sdk, nil
}
