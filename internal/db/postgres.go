package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/types"
	"github.com/platewire/tvchefs-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "tvchefs", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Chef{},
		&types.Restaurant{},
		&types.Show{},
		&types.ChefShow{},
		&types.DuplicateCandidate{},
		&types.StagedDiscovery{},
		&types.AuditLog{},
		&types.AICallLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_restaurant_chef_id",
			sql: `ALTER TABLE "restaurant"
				ADD CONSTRAINT "fk_restaurant_chef_id"
				FOREIGN KEY ("chef_id") REFERENCES "chef"("id")
				ON DELETE SET NULL`,
		},
		{
			name: "fk_chef_show_chef_id",
			sql: `ALTER TABLE "chef_show"
				ADD CONSTRAINT "fk_chef_show_chef_id"
				FOREIGN KEY ("chef_id") REFERENCES "chef"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_chef_show_show_id",
			sql: `ALTER TABLE "chef_show"
				ADD CONSTRAINT "fk_chef_show_show_id"
				FOREIGN KEY ("show_id") REFERENCES "show"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		var count int64
		if err := s.db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name).Scan(&count).Error; err != nil {
			return fmt.Errorf("failed to check constraint %s: %w", c.name, err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

// EnsureMergeProcedures installs the server-side merge functions. Running the
// whole merge inside one plpgsql function keeps it atomic: any raised
// exception rolls back every step, so a failed merge leaves both records
// untouched.
func (s *PostgresService) EnsureMergeProcedures() error {
	s.log.Info("Installing merge procedures...")

	mergeChef := `
CREATE OR REPLACE FUNCTION merge_chef_records(p_keeper uuid, p_loser uuid, p_merged jsonb)
RETURNS jsonb AS $$
DECLARE
  v_transferred integer := 0;
  v_shows integer := 0;
  v_show jsonb;
BEGIN
  IF p_keeper = p_loser THEN
    RAISE EXCEPTION 'keeper and loser are the same record %', p_keeper;
  END IF;
  IF NOT EXISTS (SELECT 1 FROM chef WHERE id = p_keeper AND deleted_at IS NULL) THEN
    RAISE EXCEPTION 'keeper chef % not found', p_keeper;
  END IF;
  IF NOT EXISTS (SELECT 1 FROM chef WHERE id = p_loser AND deleted_at IS NULL) THEN
    RAISE EXCEPTION 'loser chef % not found', p_loser;
  END IF;
  IF EXISTS (SELECT 1 FROM chef WHERE id = p_loser AND protected) THEN
    RAISE EXCEPTION 'chef % is protected and cannot be merged away', p_loser;
  END IF;

  UPDATE chef SET
    name       = COALESCE(NULLIF(p_merged->>'name', ''), name),
    bio        = COALESCE(NULLIF(p_merged->>'bio', ''), bio),
    blurb      = COALESCE(NULLIF(p_merged->>'blurb', ''), blurb),
    narrative  = COALESCE(NULLIF(p_merged->>'narrative', ''), narrative),
    photo_url  = COALESCE(NULLIF(p_merged->>'photo_url', ''), photo_url),
    hometown   = COALESCE(NULLIF(p_merged->>'hometown', ''), hometown),
    updated_at = now()
  WHERE id = p_keeper;

  UPDATE restaurant SET chef_id = p_keeper, updated_at = now()
  WHERE chef_id = p_loser;
  GET DIAGNOSTICS v_transferred = ROW_COUNT;

  DELETE FROM chef_show WHERE chef_id = p_keeper OR chef_id = p_loser;

  FOR v_show IN SELECT * FROM jsonb_array_elements(COALESCE(p_merged->'shows', '[]'::jsonb))
  LOOP
    INSERT INTO chef_show (id, chef_id, show_id, season, result, is_primary, created_at, updated_at)
    VALUES (
      uuid_generate_v4(),
      p_keeper,
      (v_show->>'show_id')::uuid,
      COALESCE(v_show->>'season', ''),
      COALESCE(NULLIF(v_show->>'result', ''), 'contestant'),
      COALESCE((v_show->>'is_primary')::boolean, false),
      now(),
      now()
    )
    ON CONFLICT (chef_id, show_id, season) DO NOTHING;
    v_shows := v_shows + 1;
  END LOOP;

  DELETE FROM chef WHERE id = p_loser;

  RETURN jsonb_build_object('restaurants_transferred', v_transferred, 'shows_inserted', v_shows);
END;
$$ LANGUAGE plpgsql;
`

	mergeRestaurant := `
CREATE OR REPLACE FUNCTION merge_restaurant_records(p_keeper uuid, p_loser uuid, p_merged jsonb)
RETURNS jsonb AS $$
BEGIN
  IF p_keeper = p_loser THEN
    RAISE EXCEPTION 'keeper and loser are the same record %', p_keeper;
  END IF;
  IF NOT EXISTS (SELECT 1 FROM restaurant WHERE id = p_keeper AND deleted_at IS NULL) THEN
    RAISE EXCEPTION 'keeper restaurant % not found', p_keeper;
  END IF;
  IF NOT EXISTS (SELECT 1 FROM restaurant WHERE id = p_loser AND deleted_at IS NULL) THEN
    RAISE EXCEPTION 'loser restaurant % not found', p_loser;
  END IF;
  IF EXISTS (SELECT 1 FROM restaurant WHERE id = p_loser AND protected) THEN
    RAISE EXCEPTION 'restaurant % is protected and cannot be merged away', p_loser;
  END IF;

  UPDATE restaurant SET
    name            = COALESCE(NULLIF(p_merged->>'name', ''), name),
    address         = COALESCE(NULLIF(p_merged->>'address', ''), address),
    city            = COALESCE(NULLIF(p_merged->>'city', ''), city),
    state           = COALESCE(NULLIF(p_merged->>'state', ''), state),
    website         = COALESCE(NULLIF(p_merged->>'website', ''), website),
    google_place_id = COALESCE(NULLIF(p_merged->>'google_place_id', ''), google_place_id),
    rating          = GREATEST(rating, COALESCE((p_merged->>'rating')::float, 0)),
    review_count    = GREATEST(review_count, COALESCE((p_merged->>'review_count')::int, 0)),
    photo_count     = GREATEST(photo_count, COALESCE((p_merged->>'photo_count')::int, 0)),
    updated_at      = now()
  WHERE id = p_keeper;

  -- Losing restaurants are hidden, not removed.
  UPDATE restaurant SET status = 'closed', is_public = false, updated_at = now()
  WHERE id = p_loser;

  RETURN jsonb_build_object('restaurants_transferred', 0, 'shows_inserted', 0);
END;
$$ LANGUAGE plpgsql;
`

	if err := s.db.Exec(mergeChef).Error; err != nil {
		return fmt.Errorf("failed to install merge_chef_records: %w", err)
	}
	if err := s.db.Exec(mergeRestaurant).Error; err != nil {
		return fmt.Errorf("failed to install merge_restaurant_records: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
