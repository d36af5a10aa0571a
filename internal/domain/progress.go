package domain

import "time"

// AgentStatus is the lifecycle state of one pipeline agent.
type AgentStatus string

const (
	StatusPending    AgentStatus = "pending"
	StatusInProgress AgentStatus = "in_progress"
	StatusCompleted  AgentStatus = "completed"
	StatusFailed     AgentStatus = "failed"
)

// AgentProgress is the per-stage view carried in every update.
type AgentProgress struct {
	AgentName string      `json:"agent_name"`
	Status    AgentStatus `json:"status"`
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Result    any         `json:"result,omitempty"`
}

// ProgressUpdate is one snapshot of a running generation. The last update
// of a stream has Completed set; Result is present only on success.
type ProgressUpdate struct {
	PackageID       string          `json:"package_id"`
	OverallProgress int             `json:"overall_progress"`
	CurrentAgent    string          `json:"current_agent"`
	Agents          []AgentProgress `json:"agents"`
	Message         string          `json:"message"`
	Completed       bool            `json:"completed"`
	Result          *BrandPackage   `json:"result,omitempty"`
}

// Succeeded reports whether this is a terminal update carrying a package
// with no failed agent.
func (u ProgressUpdate) Succeeded() bool {
	if !u.Completed || u.Result == nil {
		return false
	}
	for _, a := range u.Agents {
		if a.Status == StatusFailed {
			return false
		}
	}
	return true
}

// PackageStatusCompleted is the only status a constructed package carries.
const PackageStatusCompleted = "completed"

// BrandPackage is the terminal artifact of a successful generation.
type BrandPackage struct {
	ID                    string           `json:"id"`
	Strategy              BrandStrategy    `json:"strategy"`
	Assets                []GeneratedAsset `json:"assets"`
	CreatedAt             time.Time        `json:"created_at"`
	Status                string           `json:"status"`
	GenerationTimeSeconds float64          `json:"generation_time_seconds"`
}

// AssetsOf returns the assets of one kind in package order.
func (p BrandPackage) AssetsOf(kind AssetKind) []GeneratedAsset {
	var out []GeneratedAsset
	for _, a := range p.Assets {
		if a.Type == kind {
			out = append(out, a)
		}
	}
	return out
}
