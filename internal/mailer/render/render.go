// Package render builds the HTML bodies for outbound loyalty emails.
package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// RewardEarnedInput is the deterministic input for the reward email.
type RewardEarnedInput struct {
	CustomerName      string
	ThresholdMultiple int
	PointTotal        int
	RewardDescription string
	ShopName          string
}

const rewardEarnedTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>You earned a reward!</title>
  <style>
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .card {
      max-width: 560px;
      margin: 0 auto;
      border: 1px solid #e5e7eb;
      border-radius: 8px;
      padding: 24px;
    }
    .headline {
      font-size: 20px;
      font-weight: 600;
      margin-bottom: 12px;
    }
    .points {
      color: #6b7280;
      font-size: 14px;
      margin-top: 16px;
    }
  </style>
</head>
<body>
  <div class="card">
    <div class="headline">Congratulations, {{.CustomerName}}!</div>
    <p>You reached {{.ThresholdMultiple}} loyalty points at {{.ShopName}} and earned: <strong>{{.RewardDescription}}</strong>.</p>
    <p>Show this email at the counter to redeem it on your next visit.</p>
    <div class="points">Current balance: {{.PointTotal}} points</div>
  </div>
</body>
</html>`

var rewardEarned = template.Must(template.New("reward_earned").Parse(rewardEarnedTemplate))

// RewardEarnedHTML renders the congratulations email body.
func RewardEarnedHTML(input RewardEarnedInput) (string, error) {
	if input.ShopName == "" {
		input.ShopName = "our coffee shop"
	}
	var buf bytes.Buffer
	if err := rewardEarned.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RewardEarnedSubject renders the email subject line.
func RewardEarnedSubject(input RewardEarnedInput) string {
	return fmt.Sprintf("You've earned a reward at %d points!", input.ThresholdMultiple)
}
