package views

import (
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

func init() {
	registerCourses()
	registerSessions()
	registerAttendance()
}

func registerCourses() {
	level := core.FieldSpec{Name: "Level", Type: core.FieldEnum, EnumValues: []string{"foundation", "intermediate", "advanced"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "courses",
			Group: "Academics",
			Label: "Courses",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Code", Type: core.FieldText},
			{Name: "Title", Type: core.FieldText},
			{Name: "Department", Type: core.FieldText},
			level,
			{Name: "Credits", Type: core.FieldNumeric},
			{Name: "Instructors", Type: core.FieldJSON},
			{Name: "Active", Type: core.FieldBool},
		},
		Filters: []pipeline.FilterSpec{
			search("Title"),
			search("Department"),
			choice(level, pipeline.FilterDropdown),
			{Column: "Instructors", Kind: pipeline.FilterMultiSelect},
		},
		Mode:          pipeline.ModeLocal,
		SearchEnabled: true,
		DefaultSort:   ascending("Code"),
		Renderers: map[string]pipeline.Renderer{
			"Level":  title,
			"Active": yesNo,
		},
	})
}

func registerSessions() {
	mode := core.FieldSpec{Name: "Mode", Type: core.FieldEnum, EnumValues: []string{"in_person", "online", "hybrid"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "sessions",
			Group: "Academics",
			Label: "Sessions",
			Table: "course_sessions",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Course", DBColumn: "course_code", Type: core.FieldText},
			{Name: "Starts At", Type: core.FieldTimestamp},
			{Name: "Room", Type: core.FieldText},
			mode,
			{Name: "Enrolled", Type: core.FieldNumeric},
			{Name: "Capacity", Type: core.FieldNumeric},
		},
		Filters: []pipeline.FilterSpec{
			search("Course"),
			{Column: "Starts At", Kind: pipeline.FilterDateTime},
			choice(mode, pipeline.FilterMultiSelect),
		},
		Mode:          pipeline.ModeDelegated,
		SearchEnabled: true,
		DefaultSort:   descending("Starts At"),
		Renderers: map[string]pipeline.Renderer{
			"Mode": title,
		},
	})
}

func registerAttendance() {
	status := core.FieldSpec{Name: "Status", Type: core.FieldEnum, EnumValues: []string{"present", "late", "absent", "excused"}}

	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   "attendance",
			Group: "Academics",
			Label: "Attendance",
			Table: "attendance_records",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "Student", DBColumn: "student_name", Type: core.FieldText},
			{Name: "Course", DBColumn: "course_code", Type: core.FieldText},
			{Name: "Date", DBColumn: "session_date", Type: core.FieldDate},
			status,
			{Name: "Minutes Late", Type: core.FieldNumeric},
		},
		Filters: []pipeline.FilterSpec{
			search("Student"),
			search("Course"),
			dateRange("Date"),
			choice(status, pipeline.FilterMultiSelect),
		},
		Mode:          pipeline.ModeDelegated,
		SearchEnabled: true,
		PageSize:      25,
		DefaultSort:   descending("Date"),
		Renderers: map[string]pipeline.Renderer{
			"Status": title,
		},
	})
}
