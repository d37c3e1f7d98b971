package e2e

import (
	"github.com/cucumber/godog"

	"talentgate/e2e/steps/common"
	"talentgate/e2e/steps/onboarding"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	onboarding.RegisterSteps(ctx, tc)
}
