// Package findings defines the persisted triage record types.
package findings

// Finding is one imported static-analysis result. Findings are keyed for
// upsert on (package key, tool, rule, file, line) so re-importing the same
// result file is idempotent.
type Finding struct {
	ID               string `json:"id"`
	PackageKey       string `json:"package_key"` // compact coordinate form
	PackageType      string `json:"package_type"`
	PackageNamespace string `json:"package_namespace,omitempty"`
	PackageName      string `json:"package_name"`
	PackageVersion   string `json:"package_version"`
	Tool             string `json:"tool"`
	RuleID           string `json:"rule_id"`
	Level            string `json:"level,omitempty"`
	Message          string `json:"message"`
	FilePath         string `json:"file_path,omitempty"`
	StartLine        int    `json:"start_line,omitempty"`
	ObjectPath       string `json:"object_path"` // result file the finding came from
	Actor            string `json:"actor"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

// Run records the outcome summary of one import batch.
type Run struct {
	ID         string `json:"id"`
	Target     string `json:"target"` // coordinate string, or "all"
	Attempted  int    `json:"attempted"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Actor      string `json:"actor"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}
