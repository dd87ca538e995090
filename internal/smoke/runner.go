// Package smoke runs an end-to-end check of a deployed menu-scraper API:
// health, sample batch, full listing, restaurant filter and a rejected batch.
package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MikhailRaia/menu-scraper/internal/model"
)

// ErrFailed is returned by Run when at least one step failed.
var ErrFailed = errors.New("smoke test failed")

// SampleBatch is the batch posted by step 2. Two items belong to Pizza Palace.
const SampleBatch = `{
  "items": [
    {
      "restaurant_name": "Pizza Palace",
      "source_url": "https://pizza.palace.com/menu",
      "name": "Pepperoni Pizza",
      "description": "Classic pepperoni with mozzarella cheese",
      "price": 16.99,
      "currency": "USD"
    },
    {
      "restaurant_name": "Pizza Palace",
      "source_url": "https://pizza.palace.com/menu",
      "name": "Margherita Pizza",
      "description": "Fresh tomatoes, mozzarella, basil",
      "price": 14.50,
      "currency": "USD"
    },
    {
      "restaurant_name": "Sushi Zen",
      "source_url": "https://sushi.zen.jp/tokyo",
      "name": "Salmon Nigiri",
      "description": "2 pieces of fresh salmon on rice",
      "price": 6.50,
      "currency": "JPY"
    }
  ]
}`

// InvalidBatch breaks three rules in its only item and must be rejected with 400.
const InvalidBatch = `{"items":[{"restaurant_name":"","source_url":"https://test.com","name":"Test Item","price":-5.99,"currency":"XYZ"}]}`

const (
	sampleRestaurant     = "Pizza Palace"
	sampleSize           = 3
	sampleRestaurantSize = 2
	descriptionWidth     = 50
)

type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	default:
		return "FAIL"
	}
}

// StepResult is the outcome of one smoke step.
type StepResult struct {
	Name    string
	Status  Status
	Details []string
}

type styles struct {
	title  lipgloss.Style
	step   lipgloss.Style
	detail lipgloss.Style
	status map[Status]lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title:  plain,
			step:   plain,
			detail: plain,
			status: map[Status]lipgloss.Style{StatusPass: plain, StatusWarn: plain, StatusFail: plain},
		}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		step:   lipgloss.NewStyle().Bold(true),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		status: map[Status]lipgloss.Style{
			StatusPass: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			StatusWarn: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
			StatusFail: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		},
	}
}

// Runner executes the smoke steps in order and prints each result as it completes.
type Runner struct {
	client *Client
	out    io.Writer
	styles styles

	// items stored before the sample batch, -1 when unknown
	initialItems int64
}

func NewRunner(client *Client, out io.Writer, color bool) *Runner {
	return &Runner{
		client:       client,
		out:          out,
		styles:       newStyles(color),
		initialItems: -1,
	}
}

// Run executes all steps. It returns ErrFailed if any step failed; warnings do not fail the run.
func (r *Runner) Run(ctx context.Context) ([]StepResult, error) {
	steps := []struct {
		name string
		run  func(context.Context) StepResult
	}{
		{"Health endpoint", r.checkHealth},
		{"Post sample menu items", r.postSample},
		{"Query all menu items", r.queryAll},
		{"Query by restaurant name", r.queryRestaurant},
		{"Post invalid batch", r.postInvalid},
	}

	r.printTitle(fmt.Sprintf("Testing menu scraper API at %s", r.client.baseURL))

	results := make([]StepResult, 0, len(steps))
	failed := false
	for i, step := range steps {
		res := step.run(ctx)
		res.Name = step.name
		results = append(results, res)
		r.printStep(i+1, res)
		if res.Status == StatusFail {
			failed = true
		}
	}

	if failed {
		r.printTitle("Smoke test FAILED")
		return results, ErrFailed
	}
	r.printTitle("Smoke test complete")
	return results, nil
}

func (r *Runner) checkHealth(ctx context.Context) StepResult {
	status, report, err := r.client.Health(ctx)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return fail(fmt.Sprintf("status %d, want 200", status))
	}

	if report.Database.MenuItems != nil {
		r.initialItems = *report.Database.MenuItems
	}

	return StepResult{
		Status: StatusPass,
		Details: []string{
			fmt.Sprintf("API status: %s", report.Status),
			fmt.Sprintf("Database: %s", report.Database.Status),
		},
	}
}

func (r *Runner) postSample(ctx context.Context) StepResult {
	status, body, err := r.client.PostBatch(ctx, []byte(SampleBatch))
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return fail(fmt.Sprintf("status %d, want 200: %s", status, strings.TrimSpace(string(body))))
	}

	var resp model.BatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fail(fmt.Sprintf("decode batch response: %v", err))
	}

	detail := fmt.Sprintf("Saved %d out of %d items", resp.SavedCount, resp.TotalRequested)
	if resp.SavedCount != sampleSize || resp.TotalRequested != sampleSize {
		return fail(detail + fmt.Sprintf(", want %d/%d", sampleSize, sampleSize))
	}
	return pass(detail)
}

func (r *Runner) queryAll(ctx context.Context) StepResult {
	status, items, err := r.client.ListItems(ctx, "")
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return fail(fmt.Sprintf("status %d, want 200", status))
	}
	if len(items) < sampleSize {
		return fail(fmt.Sprintf("found %d menu items, want at least %d", len(items), sampleSize))
	}

	details := []string{fmt.Sprintf("Found %d menu items", len(items))}
	for i, item := range items {
		details = append(details,
			fmt.Sprintf("%d. %s - %s", i+1, item.RestaurantName, item.Name),
			fmt.Sprintf("   Price: %s %s", item.Price, item.Currency),
		)
		if item.Description != nil {
			details = append(details, "   Description: "+truncate(*item.Description, descriptionWidth))
		}
	}
	return StepResult{Status: StatusPass, Details: details}
}

func (r *Runner) queryRestaurant(ctx context.Context) StepResult {
	status, items, err := r.client.ListItems(ctx, sampleRestaurant)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return fail(fmt.Sprintf("status %d, want 200", status))
	}

	detail := fmt.Sprintf("Found %d items from %s", len(items), sampleRestaurant)
	switch {
	case len(items) == sampleRestaurantSize:
		return pass(detail)
	case r.initialItems != 0 && len(items) > sampleRestaurantSize:
		// Предыдущие запуски уже сохранили позиции этого ресторана
		return StepResult{Status: StatusWarn, Details: []string{detail + ", store already had data"}}
	default:
		return fail(detail + fmt.Sprintf(", want %d", sampleRestaurantSize))
	}
}

func (r *Runner) postInvalid(ctx context.Context) StepResult {
	status, body, err := r.client.PostBatch(ctx, []byte(InvalidBatch))
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusBadRequest {
		return fail(fmt.Sprintf("status %d, want 400", status))
	}

	var resp model.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return pass("Correctly rejected invalid data: " + resp.Message)
	}
	return pass("Correctly rejected invalid data")
}

func (r *Runner) printTitle(title string) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(r.out, line)
	fmt.Fprintln(r.out, r.styles.title.Render(title))
	fmt.Fprintln(r.out, line)
}

func (r *Runner) printStep(n int, res StepResult) {
	fmt.Fprintf(r.out, "%s %s\n",
		r.styles.status[res.Status].Render("["+res.Status.String()+"]"),
		r.styles.step.Render(fmt.Sprintf("%d. %s", n, res.Name)),
	)
	for _, d := range res.Details {
		fmt.Fprintln(r.out, "   "+r.styles.detail.Render(d))
	}
}

func pass(detail string) StepResult {
	return StepResult{Status: StatusPass, Details: []string{detail}}
}

func fail(detail string) StepResult {
	return StepResult{Status: StatusFail, Details: []string{detail}}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width]) + "..."
}
