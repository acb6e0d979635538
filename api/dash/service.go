package dash

import (
	"AestrakTrack/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DashService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
}

func NewDashService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &DashService{config: cfg, pool: pool}
}

func (s *DashService) Name() string {
	return "dash"
}

func (s *DashService) Start() error {
	port := 4143
	if s.config != nil {
		if p, ok := s.config["port"].(int); ok && p > 0 {
			port = p
		}
	}
	go StartDashService(s.pool, port)
	return nil
}

func (s *DashService) Stop() error {
	return nil
}
