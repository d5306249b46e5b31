package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	challengeInsertColumns = `id, content, language, path, sha, tree_sha, url, project_id, created_at`
	challengeColumnCount   = 9

	// Content is the identity of a challenge. A conflicting write only refreshes the derivable
	// fields, and the WHERE clause turns an unchanged row into a no-op.
	challengeConflictClause = `
		ON CONFLICT (content) DO UPDATE SET
			language = EXCLUDED.language,
			path = EXCLUDED.path
		WHERE challenges.language IS DISTINCT FROM EXCLUDED.language
		   OR challenges.path IS DISTINCT FROM EXCLUDED.path`

	challengeSelect = `
		SELECT c.id, c.content, c.language, c.path, c.sha, c.tree_sha, c.url, c.created_at,
		       p.id, p.full_name, p.html_url, p.language, p.stars, p.license_name,
		       p.owner_avatar, p.default_branch, p.created_at
		FROM challenges c
		LEFT JOIN projects p ON p.id = c.project_id`
)

// PostgreSQLChallengeRepository implements the ChallengeRepository interface.
type PostgreSQLChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLChallengeRepository creates a new PostgreSQL challenge repository.
func NewPostgreSQLChallengeRepository(pool *pgxpool.Pool) *PostgreSQLChallengeRepository {
	return &PostgreSQLChallengeRepository{pool: pool}
}

// UpsertBatch writes all challenges with one multi-row statement. Two members of the batch
// sharing content make the statement fail, which callers treat like any other batch failure.
func (r *PostgreSQLChallengeRepository) UpsertBatch(ctx context.Context, challenges []*entity.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO challenges (" + challengeInsertColumns + ") VALUES ")
	args := make([]any, 0, len(challenges)*challengeColumnCount)
	for i, challenge := range challenges {
		if challenge == nil {
			return ErrInvalidArgument
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*challengeColumnCount, challengeColumnCount)
		args = append(args, challengeArgs(challenge)...)
	}
	sb.WriteString(challengeConflictClause)

	tag, err := GetQueryInterface(ctx, r.pool).Exec(ctx, sb.String(), args...)
	if err != nil {
		return WrapError(err, "upsert challenge batch")
	}

	slogger.Debug(ctx, "Challenge batch upserted", slogger.Fields2(
		"batch_size", len(challenges),
		"rows_written", tag.RowsAffected(),
	))
	return nil
}

// Save writes a single challenge.
func (r *PostgreSQLChallengeRepository) Save(ctx context.Context, challenge *entity.Challenge) error {
	if challenge == nil {
		return ErrInvalidArgument
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO challenges (" + challengeInsertColumns + ") VALUES ")
	writePlaceholders(&sb, 0, challengeColumnCount)
	sb.WriteString(challengeConflictClause)

	if _, err := GetQueryInterface(ctx, r.pool).Exec(ctx, sb.String(), challengeArgs(challenge)...); err != nil {
		return WrapError(err, "save challenge")
	}
	return nil
}

// FindRandom returns one challenge picked uniformly at random.
func (r *PostgreSQLChallengeRepository) FindRandom(ctx context.Context, language string) (*entity.Challenge, error) {
	query := challengeSelect
	var args []any
	if language != "" {
		query += ` WHERE c.language = $1`
		args = append(args, language)
	}
	query += ` ORDER BY random() LIMIT 1`

	challenge, err := scanChallenge(GetQueryInterface(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find random challenge")
	}
	return challenge, nil
}

// FindDistinctLanguages returns every language with at least one stored challenge.
func (r *PostgreSQLChallengeRepository) FindDistinctLanguages(ctx context.Context) ([]string, error) {
	rows, err := GetQueryInterface(ctx, r.pool).Query(ctx, `SELECT DISTINCT language FROM challenges ORDER BY language`)
	if err != nil {
		return nil, WrapError(err, "find distinct languages")
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var language string
		if err := rows.Scan(&language); err != nil {
			return nil, WrapError(err, "scan language")
		}
		languages = append(languages, language)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "iterate languages")
	}
	return languages, nil
}

func writePlaceholders(sb *strings.Builder, offset, n int) {
	sb.WriteByte('(')
	for j := 1; j <= n; j++ {
		if j > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "$%d", offset+j)
	}
	sb.WriteByte(')')
}

func challengeArgs(c *entity.Challenge) []any {
	var projectID any
	if id := c.ProjectID(); id != uuid.Nil {
		projectID = id
	}
	return []any{
		c.ID(),
		c.Content(),
		c.Language(),
		c.Path(),
		c.Sha(),
		c.TreeSha(),
		c.URL(),
		projectID,
		c.CreatedAt(),
	}
}

func scanChallenge(row rowScanner) (*entity.Challenge, error) {
	var (
		id        uuid.UUID
		content   string
		language  string
		source    entity.ChallengeSource
		createdAt time.Time

		projectID        pgtype.UUID
		projectFullName  pgtype.Text
		projectHTMLURL   pgtype.Text
		projectLanguage  pgtype.Text
		projectStars     pgtype.Int4
		projectLicense   pgtype.Text
		projectAvatar    pgtype.Text
		projectBranch    pgtype.Text
		projectCreatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &content, &language, &source.Path, &source.Sha, &source.TreeSha, &source.URL, &createdAt,
		&projectID, &projectFullName, &projectHTMLURL, &projectLanguage, &projectStars, &projectLicense,
		&projectAvatar, &projectBranch, &projectCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	var project *entity.Project
	if projectID.Valid {
		project = entity.RestoreProject(
			uuid.UUID(projectID.Bytes),
			projectFullName.String,
			entity.ProjectMetadata{
				HTMLURL:       projectHTMLURL.String,
				Language:      projectLanguage.String,
				Stars:         int(projectStars.Int32),
				LicenseName:   projectLicense.String,
				OwnerAvatar:   projectAvatar.String,
				DefaultBranch: projectBranch.String,
			},
			projectCreatedAt.Time,
		)
	}

	return entity.RestoreChallenge(id, content, language, source, project, createdAt), nil
}
