package views

import (
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

func init() {
	registerHostels()
	registerLibraryCheckouts()
	registerMenus()
}

func registerHostels() {
	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "hostels",
			Group: "Campus",
			Label: "Hostels",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Hostel", DBColumn: "name", Type: core.FieldText},
			{Name: "Warden", Type: core.FieldText},
			{Name: "Rooms", Type: core.FieldNumeric},
			{Name: "Occupied", Type: core.FieldNumeric},
			{Name: "Amenities", Type: core.FieldJSON},
			{Name: "Coed", Type: core.FieldBool},
		},
		Filters: []pipeline.FilterSpec{
			search("Hostel"),
			search("Warden"),
			{Column: "Amenities", Kind: pipeline.FilterMultiSelect, Options: []string{"wifi", "laundry", "gym", "kitchen"}},
		},
		Mode:          pipeline.ModeLocal,
		SearchEnabled: true,
		DefaultSort:   ascending("Hostel"),
		Renderers: map[string]pipeline.Renderer{
			"Coed": yesNo,
		},
	})
}

func registerLibraryCheckouts() {
	status := core.FieldSpec{Name: "Status", Type: core.FieldEnum, EnumValues: []string{"checked_out", "returned", "overdue", "lost"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "library_checkouts",
			Group: "Campus",
			Label: "Library Checkouts",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Title", DBColumn: "book_title", Type: core.FieldText},
			{Name: "Borrower", Type: core.FieldText},
			{Name: "Checked Out", DBColumn: "checked_out_on", Type: core.FieldDate},
			{Name: "Due", DBColumn: "due_on", Type: core.FieldDate},
			{Name: "Returned", DBColumn: "returned_on", Type: core.FieldDate},
			status,
			{Name: "Fine", DBColumn: "fine_amount", Type: core.FieldNumeric},
		},
		Filters: []pipeline.FilterSpec{
			search("Title"),
			search("Borrower"),
			dateRange("Checked Out"),
			{Column: "Due", Kind: pipeline.FilterDate},
			choice(status, pipeline.FilterDropdown),
		},
		Mode:          pipeline.ModeDelegated,
		SearchEnabled: true,
		DefaultSort:   descending("Checked Out"),
		Renderers: map[string]pipeline.Renderer{
			"Status": title,
			"Fine":   money,
		},
	})
}

func registerMenus() {
	meal := core.FieldSpec{Name: "Meal", Type: core.FieldEnum, EnumValues: []string{"breakfast", "lunch", "dinner"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "menus",
			Group: "Campus",
			Label: "Menus",
			Table: "dining_menus",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Served On", Type: core.FieldDate},
			meal,
			{Name: "Hall", Type: core.FieldText},
			{Name: "Dishes", Type: core.FieldJSON},
			{Name: "Vegetarian", Type: core.FieldBool},
		},
		Filters: []pipeline.FilterSpec{
			{Column: "Served On", Kind: pipeline.FilterDate},
			choice(meal, pipeline.FilterMultiSelect),
			search("Dishes"),
		},
		Mode:          pipeline.ModeLocal,
		SearchEnabled: true,
		PageSize:      21,
		DefaultSort:   descending("Served On"),
		Renderers: map[string]pipeline.Renderer{
			"Meal":       title,
			"Vegetarian": yesNo,
		},
	})
}
