//go:build e2e

package moderation

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(as, method, path string, body any) error
	Status() int
	Body() string
	Field(path string) (any, error)
	FieldString(path string) (string, error)
	Remember(name, value string)
	Lookup(name string) (string, error)
}

const operator = "operator"

// RegisterSteps registers community governance and audit trail steps.
// Grants and bans are issued by the scenario's operator admin.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &moderationSteps{tc: tc}

	ctx.Step(`^"([^"]*)" has created the community "([^"]*)"$`, steps.createdCommunity)
	ctx.Step(`^"([^"]*)" moderates "([^"]*)"$`, steps.moderates)
	ctx.Step(`^"([^"]*)" bans "([^"]*)" from "([^"]*)" for "([^"]*)"$`, steps.ban)
	ctx.Step(`^"([^"]*)" bans "([^"]*)" from "([^"]*)" permanently$`, steps.banPermanently)
	ctx.Step(`^"([^"]*)" unbans "([^"]*)" from "([^"]*)"$`, steps.unban)

	ctx.Step(`^the audit trail of "([^"]*)" should list "([^"]*)"$`, steps.auditTrailShouldList)
}

type moderationSteps struct {
	tc TestContext
}

func (s *moderationSteps) createdCommunity(as, name string) error {
	if err := s.tc.Do(as, http.MethodPost, "/communities", map[string]string{"name": name}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	v, err := s.tc.FieldString("id")
	if err != nil {
		return err
	}
	s.tc.Remember(name, v)
	return nil
}

func (s *moderationSteps) moderates(member, community string) error {
	if err := s.tc.Do(operator, http.MethodPut, "/communities/{"+community+"}/moderators/{"+member+"}", nil); err != nil {
		return err
	}
	return s.expect(http.StatusNoContent)
}

func (s *moderationSteps) ban(as, member, community, duration string) error {
	return s.issueBan(as, member, community, map[string]string{"duration": duration})
}

func (s *moderationSteps) banPermanently(as, member, community string) error {
	return s.issueBan(as, member, community, nil)
}

func (s *moderationSteps) issueBan(as, member, community string, extra map[string]string) error {
	memberID, err := s.tc.Lookup(member)
	if err != nil {
		return err
	}
	body := map[string]string{"member_id": memberID, "reason": "feature test"}
	for k, v := range extra {
		body[k] = v
	}
	return s.tc.Do(as, http.MethodPost, "/communities/{"+community+"}/bans", body)
}

func (s *moderationSteps) unban(as, member, community string) error {
	return s.tc.Do(as, http.MethodDelete, "/communities/{"+community+"}/bans/members/{"+member+"}", nil)
}

func (s *moderationSteps) auditTrailShouldList(subject, action string) error {
	if err := s.tc.Do(operator, http.MethodGet, "/admin/audit/{"+subject+"}", nil); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK); err != nil {
		return err
	}
	events, err := s.tc.Field("events")
	if err != nil {
		return err
	}
	list, _ := events.([]any)
	for _, e := range list {
		if event, ok := e.(map[string]any); ok && event["action"] == action {
			return nil
		}
	}
	return fmt.Errorf("audit trail has no %q event: %s", action, s.tc.Body())
}

func (s *moderationSteps) expect(status int) error {
	if got := s.tc.Status(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.Body())
	}
	return nil
}
