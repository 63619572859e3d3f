package warehouses

import (
	"errors"
	"strings"
)

func (s *Service) validate(w Warehouse) error {
	if strings.TrimSpace(w.Code) == "" {
		return errors.New("warehouse code is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("warehouse name is required")
	}
	if w.OwnerAgentID != nil && *w.OwnerAgentID <= 0 {
		return errors.New("owner agent must be a valid agent")
	}
	return nil
}
