package core

// Group item records. Every field is a raw string as typed by the user;
// numeric fields are not validated. Field names match the JSON keys.

type (
	Promoter struct {
		Name       string `json:"name"`
		GirlsCount string `json:"girlsCount"`
		Payment    string `json:"payment"`
	}

	StaffMember struct {
		Role    string `json:"role"`
		Name    string `json:"name"`
		Payment string `json:"payment"`
	}

	TableCommission struct {
		PromoterName string `json:"promoterName"`
		Amount       string `json:"amount"`
	}

	AdCampaign struct {
		Platform string `json:"platform"`
		Amount   string `json:"amount"`
		Reach    string `json:"reach"`
		Clicks   string `json:"clicks"`
		Leads    string `json:"leads"`
	}
)

func (p Promoter) Get(field string) (string, bool) {
	switch field {
	case "name":
		return p.Name, true
	case "girlsCount":
		return p.GirlsCount, true
	case "payment":
		return p.Payment, true
	}
	return "", false
}

func (p Promoter) With(field, value string) (Promoter, bool) {
	switch field {
	case "name":
		p.Name = value
	case "girlsCount":
		p.GirlsCount = value
	case "payment":
		p.Payment = value
	default:
		return p, false
	}
	return p, true
}

func (s StaffMember) Get(field string) (string, bool) {
	switch field {
	case "role":
		return s.Role, true
	case "name":
		return s.Name, true
	case "payment":
		return s.Payment, true
	}
	return "", false
}

func (s StaffMember) With(field, value string) (StaffMember, bool) {
	switch field {
	case "role":
		s.Role = value
	case "name":
		s.Name = value
	case "payment":
		s.Payment = value
	default:
		return s, false
	}
	return s, true
}

func (c TableCommission) Get(field string) (string, bool) {
	switch field {
	case "promoterName":
		return c.PromoterName, true
	case "amount":
		return c.Amount, true
	}
	return "", false
}

func (c TableCommission) With(field, value string) (TableCommission, bool) {
	switch field {
	case "promoterName":
		c.PromoterName = value
	case "amount":
		c.Amount = value
	default:
		return c, false
	}
	return c, true
}

func (a AdCampaign) Get(field string) (string, bool) {
	switch field {
	case "platform":
		return a.Platform, true
	case "amount":
		return a.Amount, true
	case "reach":
		return a.Reach, true
	case "clicks":
		return a.Clicks, true
	case "leads":
		return a.Leads, true
	}
	return "", false
}

func (a AdCampaign) With(field, value string) (AdCampaign, bool) {
	switch field {
	case "platform":
		a.Platform = value
	case "amount":
		a.Amount = value
	case "reach":
		a.Reach = value
	case "clicks":
		a.Clicks = value
	case "leads":
		a.Leads = value
	default:
		return a, false
	}
	return a, true
}
