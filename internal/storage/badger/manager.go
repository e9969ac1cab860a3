package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	pending interfaces.PendingStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, retentionDays int) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	pending := NewPendingStorage(db, logger)
	pending.SetRetentionDays(retentionDays)

	manager := &Manager{
		db:      db,
		pending: pending,
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// PendingStorage returns the pending-queue storage interface
func (m *Manager) PendingStorage() interfaces.PendingStorage {
	return m.pending
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close runs a value-log GC pass and closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}

	if err := m.db.RunGC(); err != nil {
		m.logger.Warn().Err(err).Msg("Badger value-log GC failed")
	}

	return m.db.Close()
}
