//go:build e2e

package e2e

import (
	"github.com/cucumber/godog"

	"agora/e2e/steps/common"
	"agora/e2e/steps/content"
	"agora/e2e/steps/moderation"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Members, raw requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Posts, comments and votes
	content.RegisterSteps(ctx, tc)

	// Communities, moderators, bans and the audit trail
	moderation.RegisterSteps(ctx, tc)
}
