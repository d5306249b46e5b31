package repository

import (
	"context"
	"time"

	"snippetcorpus/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, full_name, html_url, language, stars, license_name, owner_avatar, default_branch, created_at`

// PostgreSQLProjectRepository implements the ProjectRepository interface.
type PostgreSQLProjectRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLProjectRepository creates a new PostgreSQL project repository.
func NewPostgreSQLProjectRepository(pool *pgxpool.Pool) *PostgreSQLProjectRepository {
	return &PostgreSQLProjectRepository{pool: pool}
}

// FindByFullName finds a project by its owner/repo name.
func (r *PostgreSQLProjectRepository) FindByFullName(ctx context.Context, fullName string) (*entity.Project, error) {
	if fullName == "" {
		return nil, ErrInvalidArgument
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE full_name = $1`

	project, err := scanProject(GetQueryInterface(ctx, r.pool).QueryRow(ctx, query, fullName))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find project by full name")
	}
	return project, nil
}

// Save inserts a project. A concurrent or earlier insert of the same full name wins and the
// stored row is returned.
func (r *PostgreSQLProjectRepository) Save(ctx context.Context, project *entity.Project) (*entity.Project, error) {
	if project == nil {
		return nil, ErrInvalidArgument
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (full_name) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING ` + projectColumns

	meta := project.Metadata()
	row := GetQueryInterface(ctx, r.pool).QueryRow(ctx, query,
		project.ID(),
		project.FullName(),
		meta.HTMLURL,
		meta.Language,
		meta.Stars,
		meta.LicenseName,
		meta.OwnerAvatar,
		meta.DefaultBranch,
		project.CreatedAt(),
	)
	saved, err := scanProject(row)
	if err != nil {
		return nil, WrapError(err, "save project")
	}
	return saved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*entity.Project, error) {
	var (
		id        uuid.UUID
		fullName  string
		meta      entity.ProjectMetadata
		createdAt time.Time
	)
	err := row.Scan(
		&id, &fullName, &meta.HTMLURL, &meta.Language, &meta.Stars,
		&meta.LicenseName, &meta.OwnerAvatar, &meta.DefaultBranch, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	return entity.RestoreProject(id, fullName, meta, createdAt), nil
}
