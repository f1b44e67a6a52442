package service

import (
	"jobhire/internal/config"
	"jobhire/internal/model"
)

// PlanPrice pairs a plan with a billing cycle; each pair maps to exactly one
// Stripe price in the catalog.
type PlanPrice struct {
	Plan  model.Plan
	Cycle model.BillingCycle
}

// PriceCatalog translates between Stripe price ids and the plan/cycle pairs
// and addon product keys they stand for. Built once from config at startup.
type PriceCatalog struct {
	byPlan       map[PlanPrice]string
	byPrice      map[string]PlanPrice
	addonByKey   map[string]string
	addonByPrice map[string]string
}

// NewPriceCatalog builds the catalog from the configured price ids.
func NewPriceCatalog(cfg *config.Config) *PriceCatalog {
	c := &PriceCatalog{
		byPlan:       make(map[PlanPrice]string),
		byPrice:      make(map[string]PlanPrice),
		addonByKey:   make(map[string]string),
		addonByPrice: make(map[string]string),
	}
	plans := map[PlanPrice]string{
		{model.PlanStarter, model.BillingCycleMonthly}: cfg.StripePriceStarterMonthly,
		{model.PlanStarter, model.BillingCycleYearly}:  cfg.StripePriceStarterYearly,
		{model.PlanPro, model.BillingCycleMonthly}:     cfg.StripePriceProMonthly,
		{model.PlanPro, model.BillingCycleYearly}:      cfg.StripePriceProYearly,
		{model.PlanProPlus, model.BillingCycleMonthly}: cfg.StripePriceProPlusMonthly,
		{model.PlanProPlus, model.BillingCycleYearly}:  cfg.StripePriceProPlusYearly,
	}
	for pp, priceID := range plans {
		if priceID == "" {
			continue
		}
		c.byPlan[pp] = priceID
		c.byPrice[priceID] = pp
	}
	for key, priceID := range cfg.StripeAddonPrices {
		if priceID == "" {
			continue
		}
		c.addonByKey[key] = priceID
		c.addonByPrice[priceID] = key
	}
	return c
}

// PriceFor returns the Stripe price id for a paid plan and cycle.
func (c *PriceCatalog) PriceFor(plan model.Plan, cycle model.BillingCycle) (string, bool) {
	id, ok := c.byPlan[PlanPrice{Plan: plan, Cycle: cycle}]
	return id, ok
}

// PlanForPrice resolves a Stripe price id back to its plan and cycle.
func (c *PriceCatalog) PlanForPrice(priceID string) (PlanPrice, bool) {
	pp, ok := c.byPrice[priceID]
	return pp, ok
}

// AddonPrice returns the Stripe price id for a one-time addon product key.
func (c *PriceCatalog) AddonPrice(productKey string) (string, bool) {
	id, ok := c.addonByKey[productKey]
	return id, ok
}

// AddonForPrice resolves a Stripe price id back to its addon product key.
func (c *PriceCatalog) AddonForPrice(priceID string) (string, bool) {
	key, ok := c.addonByPrice[priceID]
	return key, ok
}
