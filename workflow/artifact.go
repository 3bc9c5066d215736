package workflow

import (
	"time"
)

// ArtifactType identifies the kind of design document an artifact holds.
type ArtifactType string

const (
	ArtifactDiscussion ArtifactType = "discussion"
	ArtifactADR        ArtifactType = "adr"
	ArtifactSpec       ArtifactType = "spec"
	ArtifactPlan       ArtifactType = "plan"
	ArtifactContract   ArtifactType = "contract"
)

// String returns the string representation of the artifact type.
func (t ArtifactType) String() string {
	return string(t)
}

// IsValid returns true if the type is a known artifact type.
func (t ArtifactType) IsValid() bool {
	switch t {
	case ArtifactDiscussion, ArtifactADR, ArtifactSpec, ArtifactPlan, ArtifactContract:
		return true
	default:
		return false
	}
}

// ArtifactTypeForStage returns the artifact type a stage produces.
// The fragment stage produces code, not a tracked artifact, and maps to
// the empty type.
func ArtifactTypeForStage(s Stage) ArtifactType {
	switch s {
	case StageDiscussion:
		return ArtifactDiscussion
	case StageADR:
		return ArtifactADR
	case StageSpec:
		return ArtifactSpec
	case StageContract:
		return ArtifactContract
	case StagePlan:
		return ArtifactPlan
	default:
		return ""
	}
}

// ArtifactStatus is the review state of an artifact. Unlocking an
// artifact for edits never deletes it, only transitions its status.
type ArtifactStatus string

const (
	ArtifactStatusDraft      ArtifactStatus = "draft"
	ArtifactStatusReview     ArtifactStatus = "review"
	ArtifactStatusApproved   ArtifactStatus = "approved"
	ArtifactStatusSuperseded ArtifactStatus = "superseded"
)

// String returns the string representation of the status.
func (s ArtifactStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a valid artifact status.
func (s ArtifactStatus) IsValid() bool {
	switch s {
	case ArtifactStatusDraft, ArtifactStatusReview, ArtifactStatusApproved, ArtifactStatusSuperseded:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the status can transition to target.
func (s ArtifactStatus) CanTransitionTo(target ArtifactStatus) bool {
	switch s {
	case ArtifactStatusDraft:
		return target == ArtifactStatusReview
	case ArtifactStatusReview:
		// review → approved (accepted) or back to draft (unlocked)
		return target == ArtifactStatusApproved || target == ArtifactStatusDraft
	case ArtifactStatusApproved:
		// approved → superseded (replaced) or draft (unlocked)
		return target == ArtifactStatusSuperseded || target == ArtifactStatusDraft
	case ArtifactStatusSuperseded:
		return false
	default:
		return false
	}
}

// Relationship names a directed link between two artifacts.
type Relationship string

const (
	RelImplements Relationship = "implements"
	RelCreates    Relationship = "creates"
	RelReferences Relationship = "references"
	RelTrackedBy  Relationship = "tracked_by"
)

// IsValid returns true if the relationship is a known kind.
func (r Relationship) IsValid() bool {
	switch r {
	case RelImplements, RelCreates, RelReferences, RelTrackedBy:
		return true
	default:
		return false
	}
}

// ArtifactLink is a declared relationship from one artifact to another.
type ArtifactLink struct {
	// Target is the ID of the artifact this link points at.
	Target string `json:"target"`

	// Relationship is the kind of link.
	Relationship Relationship `json:"relationship"`
}

// Artifact is a versioned design document tracked by the workflow tool.
// Identity is the ID; content lives in a separate file addressed by
// FilePath.
type Artifact struct {
	ID          string         `json:"id"`
	Type        ArtifactType   `json:"type"`
	Title       string         `json:"title"`
	Status      ArtifactStatus `json:"status"`
	FilePath    string         `json:"file_path"`
	FileFormat  string         `json:"file_format"`
	UpdatedDate time.Time      `json:"updated_date"`

	// Links are the artifact's declared relationships to other artifacts.
	Links []ArtifactLink `json:"links,omitempty"`
}
