package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testClassifier = Classifier{
	Plumbing: Routing{BusinessUnitID: 40464378, JobTypeID: 40464992},
	Drain:    Routing{BusinessUnitID: 40472669, JobTypeID: 79265910},
}

func TestClassify(t *testing.T) {
	tests := []struct {
		issue string
		drain bool
	}{
		{"clogged drain in the kitchen", true},
		{"sewer smell in basement", true},
		{"toilet keeps backing up", true},
		{"need the line snaked", true},
		{"CLOGGED BATHTUB", true},
		{"leaky faucet", false},
		{"water heater not heating", false},
		{"burst pipe under the sink", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.issue, func(t *testing.T) {
			got := testClassifier.Classify(tt.issue)
			if tt.drain {
				assert.Equal(t, testClassifier.Drain, got)
			} else {
				assert.Equal(t, testClassifier.Plumbing, got)
			}
		})
	}
}

func TestWireCanonical(t *testing.T) {
	t.Run("prefers explicit name", func(t *testing.T) {
		req := Wire{Name: "Sam Rivera", FirstName: "Other"}.Canonical()
		assert.Equal(t, "Sam Rivera", req.Name)
	})

	t.Run("joins first and last name", func(t *testing.T) {
		req := Wire{FirstName: "Sam", LastName: "Rivera"}.Canonical()
		assert.Equal(t, "Sam Rivera", req.Name)
	})

	t.Run("folds field aliases", func(t *testing.T) {
		req := Wire{
			CustomerName: "Sam",
			PhoneNumber:  "9378843414",
			Address:      "1 Main St",
			ZipCode:      "45402",
			Problem:      "leaky faucet",
			Window:       "morning",
			Date:         "wednesday",
		}.Canonical()
		assert.Equal(t, "Sam", req.Name)
		assert.Equal(t, "9378843414", req.Phone)
		assert.Equal(t, "1 Main St", req.Street)
		assert.Equal(t, "45402", req.Zip)
		assert.Equal(t, "leaky faucet", req.Issue)
		assert.Equal(t, "morning", req.Window)
		assert.Equal(t, "wednesday", req.Day)
	})
}

func TestMissingFields_Order(t *testing.T) {
	missing := Request{}.MissingRequired()
	assert.Equal(t, []string{"name", "phone number", "street address", "city", "zip code", "issue", "time window"}, missing)

	missing = Request{
		Name: "Sam", Phone: "9378843414", Street: "1 Main St", City: "Dayton",
		Issue: "leak", Window: "morning",
	}.MissingRequired()
	assert.Equal(t, []string{"zip code"}, missing)
}
