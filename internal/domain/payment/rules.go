package payment

// Effect is a side effect attached to entering a status
type Effect string

const (
	// EffectStampProcessed sets ProcessedAt unless already set
	EffectStampProcessed Effect = "stamp_processed_at"
	// EffectStampCompleted sets CompletedAt unless already set
	EffectStampCompleted Effect = "stamp_completed_at"
	// EffectRecordDispute stores the transition note as the dispute reason
	EffectRecordDispute Effect = "record_dispute"
	// EffectReleaseVendorPayouts moves pending vendor payouts of the same order to processing.
	// It is applied by the caller, since it touches other aggregates.
	EffectReleaseVendorPayouts Effect = "release_vendor_payouts"
)

// IsLocal reports whether the effect is applied inside the payment aggregate itself
func (e Effect) IsLocal() bool {
	return e != EffectReleaseVendorPayouts
}

type effectRule struct {
	status  Status
	types   []Type // nil matches every type
	effects []Effect
}

// effectRules is the status -> side-effect table. Entering a status applies the
// effects of every matching rule, in table order.
var effectRules = []effectRule{
	{status: StatusProcessing, effects: []Effect{EffectStampProcessed}},
	{status: StatusCompleted, effects: []Effect{EffectStampProcessed, EffectStampCompleted}},
	{status: StatusCompleted, types: []Type{TypeCustomerToPlatform}, effects: []Effect{EffectReleaseVendorPayouts}},
	{status: StatusDisputed, effects: []Effect{EffectRecordDispute}},
}

// EffectsFor lists the effects of a payment of paymentType entering status
func EffectsFor(paymentType Type, status Status) []Effect {
	var effects []Effect
	for _, rule := range effectRules {
		if rule.status != status || !rule.matches(paymentType) {
			continue
		}
		effects = append(effects, rule.effects...)
	}
	return effects
}

func (r effectRule) matches(t Type) bool {
	if r.types == nil {
		return true
	}
	for _, rt := range r.types {
		if rt == t {
			return true
		}
	}
	return false
}

// TransitionResult describes what a status change did
type TransitionResult struct {
	From    Status
	To      Status
	Effects []Effect
}

// Has reports whether effect was triggered
func (r TransitionResult) Has(effect Effect) bool {
	for _, e := range r.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// ReleasesVendorPayouts reports whether the caller must run the vendor payout rule
func (r TransitionResult) ReleasesVendorPayouts() bool {
	return r.Has(EffectReleaseVendorPayouts)
}
