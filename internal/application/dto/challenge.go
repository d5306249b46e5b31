package dto

// ChallengeResponse is a challenge as served to the consuming application.
type ChallengeResponse struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Language  string           `json:"language"`
	Path      string           `json:"path"`
	Sha       string           `json:"sha"`
	TreeSha   string           `json:"tree_sha"`
	URL       string           `json:"url"`
	Project   *ProjectResponse `json:"project,omitempty"`
	Persisted bool             `json:"persisted"`
}

// ProjectResponse is the owning project of a served challenge.
type ProjectResponse struct {
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	Language      string `json:"language"`
	Stars         int    `json:"stars"`
	LicenseName   string `json:"license_name"`
	OwnerAvatar   string `json:"owner_avatar"`
	DefaultBranch string `json:"default_branch"`
}

// ChallengeImport is one externally produced challenge to import.
type ChallengeImport struct {
	Content         string `json:"content"`
	Language        string `json:"language,omitempty"`
	Path            string `json:"path"`
	Sha             string `json:"sha"`
	TreeSha         string `json:"tree_sha"`
	URL             string `json:"url"`
	ProjectFullName string `json:"project_full_name,omitempty"`
}

// ChallengeImportBatch is the payload published for asynchronous import.
type ChallengeImportBatch struct {
	BatchID    string            `json:"batch_id"`
	Project    string            `json:"project,omitempty"`
	Challenges []ChallengeImport `json:"challenges"`
}

// UpsertReport summarizes one upsert run.
type UpsertReport struct {
	Attempted int `json:"attempted"`
	Persisted int `json:"persisted"`
	Dropped   int `json:"dropped"`
	// Fallbacks counts sub-batches that had to be saved record by record.
	Fallbacks int `json:"fallbacks"`
}

// Add accumulates other into r.
func (r *UpsertReport) Add(other UpsertReport) {
	r.Attempted += other.Attempted
	r.Persisted += other.Persisted
	r.Dropped += other.Dropped
	r.Fallbacks += other.Fallbacks
}

// ImportSummary is the outcome of a remote import run.
type ImportSummary struct {
	Projects       int          `json:"projects"`
	FailedProjects []string     `json:"failed_projects,omitempty"`
	Extracted      int          `json:"extracted"`
	Published      int          `json:"published"`
	Report         UpsertReport `json:"report"`
}
