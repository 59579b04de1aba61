package rewards

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// SheetLookup reads the reward sheet published as CSV (first column the
// Telegram user id, second the reward text) and resolves one user's reward.
// The sheet is owned elsewhere; this client is read-only.
type SheetLookup struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewSheetLookup(url string, logger zerolog.Logger) *SheetLookup {
	return &SheetLookup{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("component", "rewards").Logger(),
	}
}

// Lookup returns the reward assigned to the user, or empty when the sheet
// has no row for them.
func (l *SheetLookup) Lookup(ctx context.Context, userID int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("SheetLookup.Lookup: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("SheetLookup.Lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("SheetLookup.Lookup: unexpected status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("SheetLookup.Lookup: parse sheet: %w", err)
	}

	want := strconv.FormatInt(userID, 10)

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		if row[0] == want {
			return row[1], nil
		}
	}

	return "", nil
}
