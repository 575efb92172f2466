package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryGovernance, EventMemberBanned.Category())
	assert.Equal(t, CategoryGovernance, EventPostArchived.Category())
	assert.Equal(t, CategoryContent, EventPostVoted.Category())
	assert.Equal(t, CategoryContent, AuditEvent("something_new").Category())
}
