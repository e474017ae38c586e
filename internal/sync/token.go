package sync

import (
	"context"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

// TokenFromStore reads the pairing token from local settings. A device
// that has never paired yields an empty token rather than an error.
func TokenFromStore(st store.Store) api.TokenFunc {
	return func(ctx context.Context) (string, error) {
		token, err := st.GetSetting(ctx, models.SettingToken)
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", nil
		}
		return token, err
	}
}
