package files

import (
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EvidenceService downloads evidence photo bytes from Telegram. Files are
// kept in memory only: the bytes are fingerprinted and forwarded to the
// approval backend, never written to disk.
type EvidenceService struct {
	botAPI *tgbotapi.BotAPI
}

func NewEvidenceService(botAPI *tgbotapi.BotAPI) *EvidenceService {
	return &EvidenceService{botAPI: botAPI}
}

func (s *EvidenceService) Fetch(fileID string) ([]byte, error) {
	file, err := s.botAPI.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("EvidenceService.Fetch: cannot get file: %w", err)
	}

	resp, err := http.Get(file.Link(s.botAPI.Token))
	if err != nil {
		return nil, fmt.Errorf("EvidenceService.Fetch: cannot download file: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EvidenceService.Fetch: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("EvidenceService.Fetch: cannot read file: %w", err)
	}

	return data, nil
}
