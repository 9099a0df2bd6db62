package helpers

import (
	"gorm.io/gorm"

	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// TestRepositories holds all real repository instances for integration tests
type TestRepositories struct {
	DB         *gorm.DB
	Sessions   *persistence.SessionRepositoryGORM
	Actions    *persistence.ActionRepositoryGORM
	Ticks      *persistence.TickRepositoryGORM
	PlannerLog *persistence.GormPlannerLogRepository
}

// NewTestRepositories creates all real repository instances on db
// clock is used for time-sensitive operations (usually a MockClock in tests)
func NewTestRepositories(db *gorm.DB, catalog *buildtype.Catalog, clock shared.Clock) *TestRepositories {
	return &TestRepositories{
		DB:         db,
		Sessions:   persistence.NewSessionRepository(db, clock),
		Actions:    persistence.NewActionRepository(db, catalog, clock),
		Ticks:      persistence.NewTickRepository(db),
		PlannerLog: persistence.NewGormPlannerLogRepository(db, clock),
	}
}
