//go:build e2e

package content

import (
	"fmt"
	"net/http"
	"strconv"

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

const observer = "observer"

// RegisterSteps registers post, comment and vote steps. Posts and comments
// are named by an alias that the steps remember their IDs under.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &contentSteps{tc: tc}

	ctx.Step(`^"([^"]*)" has drafted the post "([^"]*)" in "([^"]*)"$`, steps.draftPost)
	ctx.Step(`^"([^"]*)" has published the post "([^"]*)" in "([^"]*)"$`, steps.publishedPost)
	ctx.Step(`^"([^"]*)" (publishes|archives|restores) the post "([^"]*)"$`, steps.transitionPost)
	ctx.Step(`^"([^"]*)" votes (-?\d+) on the post "([^"]*)"$`, steps.votePost)
	ctx.Step(`^"([^"]*)" comments on the post "([^"]*)" as "([^"]*)"$`, steps.comment)
	ctx.Step(`^"([^"]*)" replies to "([^"]*)" on the post "([^"]*)" as "([^"]*)"$`, steps.reply)
	ctx.Step(`^"([^"]*)" deletes the comment "([^"]*)"$`, steps.deleteComment)
	ctx.Step(`^"([^"]*)" votes (-?\d+) on the comment "([^"]*)"$`, steps.voteComment)

	ctx.Step(`^the vote op should be "([^"]*)"$`, steps.voteOpShouldBe)
	ctx.Step(`^the post "([^"]*)" should have status "([^"]*)"$`, steps.postStatusShouldBe)
	ctx.Step(`^the post "([^"]*)" should have (\d+) up and (\d+) down votes$`, steps.postVotesShouldBe)
	ctx.Step(`^the post "([^"]*)" should count (\d+) comments$`, steps.postCommentCountShouldBe)
	ctx.Step(`^the thread of the post "([^"]*)" should hold (\d+) comments$`, steps.threadShouldHold)
}

type contentSteps struct {
	tc TestContext
}

func (s *contentSteps) draftPost(as, alias, community string) error {
	communityID, err := s.tc.Lookup(community)
	if err != nil {
		return err
	}
	if err := s.tc.Do(as, http.MethodPost, "/posts", map[string]any{
		"community_id": communityID,
		"title":        alias,
		"content":      "Body of " + alias,
	}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	return s.rememberID(alias)
}

func (s *contentSteps) publishedPost(as, alias, community string) error {
	if err := s.draftPost(as, alias, community); err != nil {
		return err
	}
	if err := s.tc.Do(as, http.MethodPost, "/posts/{"+alias+"}/publish", nil); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *contentSteps) transitionPost(as, verb, alias string) error {
	action := map[string]string{"publishes": "publish", "archives": "archive", "restores": "restore"}[verb]
	return s.tc.Do(as, http.MethodPost, "/posts/{"+alias+"}/"+action, nil)
}

func (s *contentSteps) votePost(as string, value int, alias string) error {
	return s.tc.Do(as, http.MethodPut, "/posts/{"+alias+"}/vote", map[string]int{"value": value})
}

func (s *contentSteps) voteComment(as string, value int, alias string) error {
	return s.tc.Do(as, http.MethodPut, "/comments/{"+alias+"}/vote", map[string]int{"value": value})
}

func (s *contentSteps) comment(as, post, alias string) error {
	if err := s.tc.Do(as, http.MethodPost, "/posts/{"+post+"}/comments", map[string]any{"body": "comment " + alias}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	return s.rememberID(alias)
}

func (s *contentSteps) reply(as, parent, post, alias string) error {
	parentID, err := s.tc.Lookup(parent)
	if err != nil {
		return err
	}
	if err := s.tc.Do(as, http.MethodPost, "/posts/{"+post+"}/comments", map[string]any{
		"parent_id": parentID,
		"body":      "reply " + alias,
	}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	return s.rememberID(alias)
}

func (s *contentSteps) deleteComment(as, alias string) error {
	return s.tc.Do(as, http.MethodDelete, "/comments/{"+alias+"}", nil)
}

func (s *contentSteps) voteOpShouldBe(want string) error {
	return s.fieldEquals("op", want)
}

func (s *contentSteps) postStatusShouldBe(alias, want string) error {
	if err := s.readPost(alias); err != nil {
		return err
	}
	return s.fieldEquals("status", want)
}

func (s *contentSteps) postVotesShouldBe(alias string, up, down int) error {
	if err := s.readPost(alias); err != nil {
		return err
	}
	if err := s.fieldEquals("votes.up_count", strconv.Itoa(up)); err != nil {
		return err
	}
	return s.fieldEquals("votes.down_count", strconv.Itoa(down))
}

func (s *contentSteps) postCommentCountShouldBe(alias string, want int) error {
	if err := s.readPost(alias); err != nil {
		return err
	}
	return s.fieldEquals("comment_count", strconv.Itoa(want))
}

func (s *contentSteps) threadShouldHold(alias string, want int) error {
	if err := s.tc.Do(observer, http.MethodGet, "/posts/{"+alias+"}/comments", nil); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK); err != nil {
		return err
	}
	comments, err := s.tc.Field("comments")
	if err != nil {
		return err
	}
	list, _ := comments.([]any)
	if len(list) != want {
		return fmt.Errorf("expected %d comments in the thread, got %d: %s", want, len(list), s.tc.Body())
	}
	return nil
}

func (s *contentSteps) readPost(alias string) error {
	if err := s.tc.Do(observer, http.MethodGet, "/posts/{"+alias+"}", nil); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *contentSteps) rememberID(alias string) error {
	v, err := s.tc.FieldString("id")
	if err != nil {
		return err
	}
	s.tc.Remember(alias, v)
	return nil
}

func (s *contentSteps) expect(status int) error {
	if got := s.tc.Status(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.Body())
	}
	return nil
}

func (s *contentSteps) fieldEquals(path, want string) error {
	got, err := s.tc.FieldString(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s to be %q, got %q", path, want, got)
	}
	return nil
}
