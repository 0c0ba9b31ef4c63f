package form

import "rumba/internal/core"

// Field names shared between schemas, rules and handlers.
const (
	FieldEventID         = "eventId"
	FieldDate            = "date"
	FieldNotes           = "notes"
	FieldEntranceRevenue = "entranceRevenue"
	FieldEventType       = "eventType"
	FieldDealType        = "dealType"
	FieldDayOfWeek       = "dayOfWeek"
	FieldEventDate       = "eventDate"
	FieldEntranceShare   = "entranceShare"
)

// Group names as they appear in URLs.
const (
	GroupPromoters        = "promoters"
	GroupStaff            = "staff"
	GroupTableCommissions = "tableCommissions"
	GroupAdCampaigns      = "adCampaigns"
)

// GroupNames lists the repeatable groups in page order.
var GroupNames = []string{GroupPromoters, GroupStaff, GroupTableCommissions, GroupAdCampaigns}

var (
	PromoterColumns = []Field{
		{Name: "name", Label: "Promoter", Kind: KindText, Placeholder: "Promoter name"},
		{Name: "girlsCount", Label: "Girls", Kind: KindNumber, Placeholder: "Number of girls", Summed: true},
		{Name: "payment", Label: "Payment (AED)", Kind: KindNumber, Placeholder: "Payment amount", Summed: true, Currency: true},
	}
	StaffColumns = []Field{
		{Name: "role", Label: "Role", Kind: KindText, Placeholder: "Role (e.g., Hostess)"},
		{Name: "name", Label: "Name", Kind: KindText, Placeholder: "Staff name"},
		{Name: "payment", Label: "Payment (AED)", Kind: KindNumber, Placeholder: "Payment amount", Summed: true, Currency: true},
	}
	TableCommissionColumns = []Field{
		{Name: "promoterName", Label: "Promoter", Kind: KindText, Placeholder: "Promoter name"},
		{Name: "amount", Label: "Amount (AED)", Kind: KindNumber, Placeholder: "Commission amount", Summed: true, Currency: true},
	}
	AdCampaignColumns = []Field{
		{Name: "platform", Label: "Platform", Kind: KindText, Placeholder: "Platform (e.g., Instagram, Facebook)"},
		{Name: "amount", Label: "Amount (AED)", Kind: KindNumber, Placeholder: "Spend amount", Summed: true, Currency: true},
		{Name: "reach", Label: "Reach", Kind: KindNumber, Placeholder: "Total reach", Summed: true},
		{Name: "clicks", Label: "Clicks", Kind: KindNumber, Placeholder: "Total clicks", Summed: true},
		{Name: "leads", Label: "Leads", Kind: KindNumber, Placeholder: "Total leads", Summed: true},
	}
)

func eventSelect() Field {
	return Field{
		Name:        FieldEventID,
		Label:       "Select Event",
		Kind:        KindSelect,
		Placeholder: "Choose an event",
		Required:    true,
		Message:     "Please select an event.",
	}
}

func dateField() Field {
	return Field{Name: FieldDate, Label: "Date", Kind: KindDate, Required: true}
}

func amount(name, label string) Field {
	return Field{Name: name, Label: label, Kind: KindNumber, Placeholder: "0", ZeroIfBlank: true}
}

func entranceRevenue() Field {
	return amount(FieldEntranceRevenue, "Entrance Revenue (AED)")
}

// ExpenseSchema describes the Add Event Expense page. Its repeatable
// groups live in the draft, not in the schema.
var ExpenseSchema = Schema{
	Name:     "add-expense",
	Title:    "Add Event Expense",
	Subtitle: "Record expenses and commissions for an event",
	Success:  "Expense data added successfully!",
	Sections: []Section{
		{Title: "Event Details", Fields: []Field{eventSelect(), dateField()}},
		{Title: "Event Figures", Gated: true, Fields: []Field{
			{Name: "totalAttendees", Label: "Total Attendees", Kind: KindNumber, Placeholder: "Number of attendees"},
			amount("netRevenue", "Net Revenue (AED)"),
			entranceRevenue(),
			amount("grossCommission", "Gross Commission (AED)"),
			amount("netCommission", "Net Commission (AED)"),
		}},
		{Title: "Notes", Gated: true, Fields: []Field{
			{Name: FieldNotes, Label: "Notes", Kind: KindTextarea, Placeholder: "Enter any additional information here..."},
		}},
	},
}

// EventDataSchema describes the Add Event Data page.
var EventDataSchema = Schema{
	Name:     "add-data",
	Title:    "Add Event Data",
	Subtitle: "Record performance data for an event",
	Success:  "Event data added successfully!",
	Sections: []Section{
		{Title: "Event Selection", Fields: []Field{eventSelect(), dateField()}},
		{Title: "Staff & Expenses", Gated: true, Fields: []Field{
			{Name: "promoters", Label: "Promoters", Kind: KindText, Placeholder: "Names of promoters"},
			{Name: "staff", Label: "Staff", Kind: KindText, Placeholder: "Hostesses, photographers, etc."},
			amount("tableCommissions", "Table Commissions (AED)"),
			amount("vipCommissions", "VIP Commissions (AED)"),
			amount("adSpend", "Ad Spend (AED)"),
			{Name: "adReach", Label: "Ad Reach", Kind: KindNumber, Placeholder: "People reached"},
			{Name: "adClicks", Label: "Ad Clicks", Kind: KindNumber, Placeholder: "Click count"},
			{Name: "adLeads", Label: "Ad Leads", Kind: KindNumber, Placeholder: "Lead count"},
		}},
		{Title: "Performance Data", Gated: true, Fields: []Field{
			{Name: "websiteLeads", Label: "Website Leads", Kind: KindNumber, Placeholder: "Lead count"},
			{Name: "attendance", Label: "Attendance", Kind: KindNumber, Placeholder: "Number of attendees"},
			amount("numTables", "Number of Tables"),
			amount("revenue", "Total Revenue (AED)"),
			entranceRevenue(),
		}},
	},
}

// NewEventSchema describes the Add Event page.
var NewEventSchema = Schema{
	Name:     "add-event",
	Title:    "Add New Event",
	Subtitle: "Create a new event and its deal structure",
	Success:  "Event added successfully!",
	Sections: []Section{
		{Title: "Event Details", Fields: []Field{
			{Name: "eventName", Label: "Event Name", Kind: KindText, Placeholder: "Friday Night Rumba", Required: true, MinLen: 2,
				Message: "Event name must be at least 2 characters."},
			{Name: FieldEventType, Label: "Event Type", Kind: KindSelect, Placeholder: "Select event type", Required: true, Options: []Option{
				{Value: string(core.Weekly), Label: "Weekly"},
				{Value: string(core.Monthly), Label: "Monthly"},
				{Value: string(core.OneTime), Label: "One-time"},
			}},
			{Name: FieldDayOfWeek, Label: "Day of Week", Kind: KindSelect, Placeholder: "Select day", Options: []Option{
				{Value: "monday", Label: "Monday"},
				{Value: "tuesday", Label: "Tuesday"},
				{Value: "wednesday", Label: "Wednesday"},
				{Value: "thursday", Label: "Thursday"},
				{Value: "friday", Label: "Friday"},
				{Value: "saturday", Label: "Saturday"},
				{Value: "sunday", Label: "Sunday"},
			}},
			{Name: FieldEventDate, Label: "Event Date", Kind: KindDate},
			{Name: "venueName", Label: "Venue Name", Kind: KindText, Placeholder: "Club XYZ", Required: true, MinLen: 2,
				Message: "Venue name must be at least 2 characters."},
		}},
		{Title: "Deal", Fields: []Field{
			{Name: FieldDealType, Label: "Deal Structure", Kind: KindSelect, Placeholder: "Select deal type", Required: true, Options: []Option{
				{Value: string(core.RevenueShare), Label: "Revenue Share"},
				{Value: string(core.RevenueShareEntrance), Label: "Revenue Share + Entrance"},
			}},
			{Name: FieldEntranceShare, Label: "Entrance Revenue Share (%)", Kind: KindNumber, Placeholder: "50%"},
			{Name: "commissions", Label: "Commission Brackets", Kind: KindTextarea, Placeholder: "15% on 20,000-40,000 AED, 20% on 40,000+ AED"},
			{Name: "isProgressiveCommission", Label: "Is % paid from each bracket? (Progressive Tiers)", Kind: KindCheckbox},
			{Name: "paymentTerms", Label: "Payment Terms", Kind: KindSelect, Placeholder: "Select payment terms", Required: true, Options: []Option{
				{Value: "one-week", Label: "1 Week"},
				{Value: "two-weeks", Label: "2 Weeks"},
				{Value: "three-weeks", Label: "3 Weeks"},
				{Value: "one-month", Label: "1 Month"},
			}},
		}},
	},
}

// NewEventResolver shows the day of week for weekly events, the date for
// the others, and the entrance share for entrance deals.
var NewEventResolver = Resolver{Rules: []Rule{
	{Field: FieldDayOfWeek, Controller: FieldEventType, Match: OneOf(string(core.Weekly))},
	{Field: FieldEventDate, Controller: FieldEventType, Match: OneOf(string(core.Monthly), string(core.OneTime))},
	{Field: FieldEntranceShare, Controller: FieldDealType, Match: OneOf(string(core.RevenueShareEntrance))},
}}

// EventResolver builds the resolver for pages scoped by an event select.
func EventResolver(eligible func(eventID string) bool) Resolver {
	return Resolver{Parent: FieldEventID, Rules: []Rule{EntranceRevenueRule(eligible)}}
}

// EventOptions turns catalog events into select options.
func EventOptions(events []core.Event) []Option {
	opts := make([]Option, len(events))
	for i, e := range events {
		opts[i] = Option{Value: e.ID, Label: e.Name}
	}
	return opts
}

// EntranceEligible returns a lookup over events for EntranceRevenueRule.
func EntranceEligible(events []core.Event) func(string) bool {
	ids := make(map[string]bool)
	for _, e := range events {
		if e.EntranceEligible() {
			ids[e.ID] = true
		}
	}
	return func(id string) bool { return ids[id] }
}

// Defaults returns the initial values of schema: today's date for date
// fields named "date" and the one-time type for new events.
func Defaults(s Schema, today string) Values {
	v := make(Values)
	for _, f := range s.Fields() {
		switch {
		case f.Name == FieldDate:
			v[f.Name] = today
		case f.Name == FieldEventType:
			v[f.Name] = string(core.OneTime)
		}
	}
	return v
}
