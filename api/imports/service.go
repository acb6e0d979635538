package imports

import (
	"AestrakTrack/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ImportsService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
}

func NewImportsService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &ImportsService{config: cfg, pool: pool}
}

func (s *ImportsService) Name() string {
	return "imports"
}

func (s *ImportsService) Start() error {
	port := 7143
	if s.config != nil {
		if p, ok := s.config["port"].(int); ok && p > 0 {
			port = p
		}
	}
	go StartImportsService(s.pool, port)
	return nil
}

func (s *ImportsService) Stop() error {
	return nil
}
