package models

import "gorm.io/gorm"

// defaultFeature is a seed row for the feature catalog.
type defaultFeature struct {
	Key         string
	Name        string
	Description string
	Category    FeatureCategory
	DependsOn   []string
	Tiers       []ProductTier
}

// defaultFeatures is the SmartCRM catalog seeded on first boot, together
// with the tiers that include each feature by default. Editing a tier
// afterwards goes through the tier matrix endpoints, not this table.
var defaultFeatures = []defaultFeature{
	{Key: "dashboard", Name: "Dashboard", Description: "Main CRM dashboard", Category: CategoryCoreCRM,
		Tiers: AllTiers},
	{Key: "contacts", Name: "Contacts", Description: "Contact management", Category: CategoryCoreCRM,
		Tiers: AllTiers},
	{Key: "deals", Name: "Deals", Description: "Deal pipeline management", Category: CategoryCoreCRM,
		Tiers: []ProductTier{TierSalesMaximizer, TierSmartCRM, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "tasks", Name: "Tasks", Description: "Task and activity tracking", Category: CategoryCoreCRM,
		Tiers: AllTiers},
	{Key: "calendar", Name: "Calendar", Description: "Calendar and appointment scheduling", Category: CategoryCoreCRM,
		Tiers: []ProductTier{TierSmartCRM, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},

	{Key: "email_composer", Name: "Email Composer", Description: "Compose and send email from the CRM", Category: CategoryCommunication,
		Tiers: []ProductTier{TierAICommunication, TierAIBoostUnlimited, TierSmartCRM, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "sms_messaging", Name: "SMS Messaging", Description: "Two-way SMS conversations", Category: CategoryCommunication,
		Tiers: []ProductTier{TierAICommunication, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "video_email", Name: "Video Email", Description: "Record and embed video messages", Category: CategoryCommunication,
		Tiers: []ProductTier{TierAICommunication, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "text_campaigns", Name: "Text Campaigns", Description: "Bulk SMS campaigns", Category: CategoryCommunication,
		DependsOn: []string{"sms_messaging"},
		Tiers:     []ProductTier{TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},

	{Key: "ai_tools", Name: "AI Tools", Description: "AI writing and analysis toolkit", Category: CategoryAIFeatures,
		Tiers: []ProductTier{TierAIBoostUnlimited, TierSalesMaximizer, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "ai_assistant", Name: "AI Assistant", Description: "Conversational CRM assistant", Category: CategoryAIFeatures,
		DependsOn: []string{"ai_tools"},
		Tiers:     []ProductTier{TierAIBoostUnlimited, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "smart_replies", Name: "Smart Replies", Description: "AI-suggested email and SMS replies", Category: CategoryAIFeatures,
		DependsOn: []string{"ai_tools"},
		Tiers:     []ProductTier{TierAICommunication, TierAIBoostUnlimited, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},

	{Key: "invoicing", Name: "Invoicing", Description: "Invoice creation and tracking", Category: CategoryBusinessTools,
		Tiers: []ProductTier{TierSalesMaximizer, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "proposals", Name: "Proposals", Description: "Proposal and quote builder", Category: CategoryBusinessTools,
		Tiers: []ProductTier{TierSalesMaximizer, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "lead_scoring", Name: "Lead Scoring", Description: "Automated lead qualification scores", Category: CategoryBusinessTools,
		Tiers: []ProductTier{TierSalesMaximizer, TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},

	{Key: "sales_automation", Name: "Sales Automation", Description: "Multi-step pipeline automation", Category: CategoryAdvanced,
		Tiers: []ProductTier{TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "api_access", Name: "API Access", Description: "REST API keys and integrations", Category: CategoryAdvanced,
		Tiers: []ProductTier{TierSmartCRMBundle, TierWhitelabel, TierSuperAdmin}},
	{Key: "custom_branding", Name: "Custom Branding", Description: "Reseller branding and custom domains", Category: CategoryAdvanced,
		Tiers: []ProductTier{TierWhitelabel, TierSuperAdmin}},

	{Key: "user_management", Name: "User Management", Description: "Manage users and roles", Category: CategoryAdmin,
		Tiers: []ProductTier{TierWhitelabel, TierSuperAdmin}},
	{Key: "feature_administration", Name: "Feature Administration", Description: "Edit the feature catalog and tier matrix", Category: CategoryAdmin,
		Tiers: []ProductTier{TierSuperAdmin}},
}

// SeedFeatureCatalog inserts the default feature catalog and tier matrix.
// Existing rows are left untouched so administrator edits survive restarts.
func SeedFeatureCatalog(db *gorm.DB) error {
	for _, def := range defaultFeatures {
		feature := Feature{
			Key:         def.Key,
			Name:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			IsEnabled:   true,
			DependsOn:   def.DependsOn,
		}
		if err := db.FirstOrCreate(&feature, "key = ?", def.Key).Error; err != nil {
			return err
		}
		for _, tier := range def.Tiers {
			mapping := TierFeature{
				Tier:              tier,
				FeatureID:         feature.ID,
				IncludedByDefault: true,
			}
			if err := db.FirstOrCreate(&mapping, "tier = ? AND feature_id = ?", tier, feature.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
