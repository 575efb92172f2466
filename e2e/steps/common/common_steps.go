//go:build e2e

package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	EnsureMember(ctx context.Context, handle string, admin bool) error
	Do(as, method, path string, body any) error
	Status() int
	Body() string
	FieldString(path string) (string, error)
	Remember(name, value string)
}

// RegisterSteps registers member setup, raw requests and response assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^a verified member "([^"]*)"$`, steps.verifiedMember)
	ctx.Step(`^an admin "([^"]*)"$`, steps.admin)

	ctx.Step(`^"([^"]*)" sends (GET|POST|PUT|PATCH|DELETE) "([^"]*)"$`, steps.send)
	ctx.Step(`^"([^"]*)" sends (GET|POST|PUT|PATCH|DELETE) "([^"]*)" with:$`, steps.sendWithBody)
	ctx.Step(`^an anonymous client sends (GET|POST|PUT|PATCH|DELETE) "([^"]*)"$`, steps.sendAnonymous)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, steps.rememberField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) verifiedMember(ctx context.Context, handle string) error {
	return s.tc.EnsureMember(ctx, handle, false)
}

func (s *commonSteps) admin(ctx context.Context, handle string) error {
	return s.tc.EnsureMember(ctx, handle, true)
}

func (s *commonSteps) send(as, method, path string) error {
	return s.tc.Do(as, method, path, nil)
}

func (s *commonSteps) sendWithBody(as, method, path string, body *godog.DocString) error {
	return s.tc.Do(as, method, path, body.Content)
}

func (s *commonSteps) sendAnonymous(method, path string) error {
	return s.tc.Do("", method, path, nil)
}

func (s *commonSteps) statusShouldBe(want int) error {
	if got := s.tc.Status(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.Body())
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(want string) error {
	return s.fieldShouldBe("error", want)
}

func (s *commonSteps) fieldShouldBe(path, want string) error {
	got, err := s.tc.FieldString(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s to be %s, got %s", path, strconv.Quote(want), strconv.Quote(got))
	}
	return nil
}

func (s *commonSteps) rememberField(path, name string) error {
	v, err := s.tc.FieldString(path)
	if err != nil {
		return err
	}
	s.tc.Remember(name, v)
	return nil
}
