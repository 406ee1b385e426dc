package builder

import (
	"github.com/google/uuid"
	"github.com/sourceplane/nthflow/internal/model"
)

// IDGenerator allocates identities for the entities of one build pass
type IDGenerator interface {
	WorkflowID(def model.Definition) string
	UnitID(workflowID, unitName string) string
}

// RandomIDs hands out fresh v4 UUIDs, so two builds of the same files never
// share an identity.
type RandomIDs struct{}

func (RandomIDs) WorkflowID(model.Definition) string {
	return uuid.NewString()
}

func (RandomIDs) UnitID(string, string) string {
	return uuid.NewString()
}

// stableNamespace roots every name-derived identity
var stableNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sourceplane/nthflow"))

// StableIDs derives v5 UUIDs from (source file, workflow name) and
// (workflow id, unit name), so rebuilds of unchanged files agree on identities.
type StableIDs struct{}

func (StableIDs) WorkflowID(def model.Definition) string {
	return uuid.NewSHA1(stableNamespace, []byte(def.Source+"\x00"+def.Name)).String()
}

func (StableIDs) UnitID(workflowID, unitName string) string {
	ns, err := uuid.Parse(workflowID)
	if err != nil {
		ns = uuid.NewSHA1(stableNamespace, []byte(workflowID))
	}
	return uuid.NewSHA1(ns, []byte(unitName)).String()
}
