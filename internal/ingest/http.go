package ingest

import (
	"context"
	"fmt"

	"github.com/AngelCh415/marketing-intel-go/internal/utils"
)

// GetJSONWithRetry decodes the JSON body at url into dst, retrying failed
// attempts with exponential backoff and jitter.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, bo utils.Backoff, url string, dst any) error {
	err := bo.Do(ctx, func(int) error {
		return getJSON(ctx, c, url, dst)
	})
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	return nil
}
