package views

import (
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

func init() {
	registerInsuranceClaims()
	registerReimbursements()
}

func registerInsuranceClaims() {
	status := core.FieldSpec{Name: "Status", Type: core.FieldEnum, EnumValues: []string{"submitted", "in_review", "approved", "rejected", "paid"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:      "insurance_claims",
			Group:    "Finance",
			Label:    "Insurance Claims",
			IDColumn: "claim_id",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Policy", DBColumn: "policy_number", Type: core.FieldText},
			{Name: "Claimant", Type: core.FieldText},
			{Name: "Submitted At", Type: core.FieldTimestamp},
			{Name: "Amount", DBColumn: "claim_amount", Type: core.FieldNumeric},
			status,
			{Name: "Documents", Type: core.FieldJSON},
		},
		Filters: []pipeline.FilterSpec{
			search("Policy"),
			search("Claimant"),
			{Column: "Submitted At", Kind: pipeline.FilterDateTime},
			choice(status, pipeline.FilterMultiSelect),
		},
		Mode:          pipeline.ModeDelegated,
		SearchEnabled: true,
		DefaultSort:   descending("Submitted At"),
		Renderers: map[string]pipeline.Renderer{
			"Amount": money,
			"Status": title,
		},
	})
}

func registerReimbursements() {
	category := core.FieldSpec{Name: "Category", Type: core.FieldEnum, EnumValues: []string{"travel", "meals", "supplies", "conference", "other"}}
	status := core.FieldSpec{Name: "Status", Type: core.FieldEnum, EnumValues: []string{"pending", "approved", "rejected", "paid"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "reimbursements",
			Group: "Finance",
			Label: "Reimbursements",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Employee", DBColumn: "employee_name", Type: core.FieldText},
			category,
			{Name: "Incurred On", Type: core.FieldDate},
			{Name: "Amount", Type: core.FieldNumeric},
			status,
			{Name: "Approved", DBColumn: "approved_flag", Type: core.FieldBool},
		},
		Filters: []pipeline.FilterSpec{
			search("Employee"),
			choice(category, pipeline.FilterMultiSelect),
			dateRange("Incurred On"),
			choice(status, pipeline.FilterDropdown),
		},
		Mode:          pipeline.ModeDelegated,
		SearchEnabled: true,
		DefaultSort:   descending("Incurred On"),
		Renderers: map[string]pipeline.Renderer{
			"Category": title,
			"Amount":   money,
			"Approved": yesNo,
		},
	})
}
