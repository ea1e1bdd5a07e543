package onboarding

import "time"

// Tracker derives the completion aggregate from the six milestone flags.
// Flags and the completion stamp are monotone: recomputation can only add
// progress, so percentage never decreases and completion is sticky.
type Tracker struct {
	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

const milestoneCount = 6

// Recompute refreshes the milestone flags from the well-known collected-data
// keys plus the document checklist outcome, then rolls up the percentage.
func (t *Tracker) Recompute(p *Progress, data CollectedData, documentsComplete bool) {
	if data != nil {
		if data.Has(FieldFirstName) && data.Has(FieldLastName) {
			p.ProfileComplete = true
		}
		if data.Has(FieldPhoneNumber) {
			p.ContactComplete = true
		}
		if data.Has(FieldPostcode) && data.AddressVerified() {
			p.AddressComplete = true
			p.AddressVerified = true
		}
		if data.Has(FieldCompanyNumber) && data.CompanyVerified() {
			p.CompanyComplete = true
			p.CompanyVerified = true
		}
		if data.Has(FieldAnnualIncome) {
			p.FinancialComplete = true
		}
	}
	if documentsComplete {
		p.DocumentsComplete = true
	}

	completed := 0
	for _, flag := range []bool{
		p.ProfileComplete,
		p.ContactComplete,
		p.AddressComplete,
		p.CompanyComplete,
		p.FinancialComplete,
		p.DocumentsComplete,
	} {
		if flag {
			completed++
		}
	}

	p.CompletionPercentage = roundPercent(completed, milestoneCount)
	if p.CompletionPercentage == 100 {
		p.IsComplete = true
	}
	if p.IsComplete && p.CompletedAt == nil {
		done := t.now().UTC()
		p.CompletedAt = &done
	}
	p.LastUpdated = t.now().UTC()
}
