package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zlovtnik/gletter/internal/clock"
	"github.com/zlovtnik/gletter/internal/integrity"
	"github.com/zlovtnik/gletter/internal/models"
)

// maxSerialAttempts bounds retries after losing an allocation race
const maxSerialAttempts = 3

// SerialService hands out document serial numbers
type SerialService struct {
	allocator integrity.Allocator
	clock     clock.Clock
	logger    *slog.Logger
}

// NewSerialService creates a new SerialService
func NewSerialService(allocator integrity.Allocator, clk clock.Clock, logger *slog.Logger) *SerialService {
	return &SerialService{
		allocator: allocator,
		clock:     clock.OrSystem(clk),
		logger:    logger,
	}
}

// Generate allocates the next serial for documentType in year. A zero year
// means the current year.
func (s *SerialService) Generate(ctx context.Context, documentType string, year int) (*models.SerialResponse, error) {
	if year == 0 {
		year = s.clock.Now().Year()
	}
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", ErrValidation, year)
	}
	prefix := integrity.PrefixFor(documentType)

	for attempt := 1; attempt <= maxSerialAttempts; attempt++ {
		n, err := s.allocator.Next(ctx, prefix, year)
		if err == nil {
			return &models.SerialResponse{
				Serial: integrity.FormatSerial(prefix, year, n),
				Prefix: prefix,
				Year:   year,
				Number: n,
			}, nil
		}
		if !errors.Is(err, integrity.ErrSerialConflict) {
			return nil, err
		}
		s.logger.Warn("serial allocation conflict, retrying",
			"prefix", prefix,
			"year", year,
			"attempt", attempt,
		)
	}
	return nil, fmt.Errorf("%w: %s-%d", ErrSerialExhausted, prefix, year)
}
