package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
)

const (
	demoListName          = "Demo Newsletter"
	demoSubscriberCount   = 42
	demoSubscriberPattern = "demo.subscriber%02d@example.com"
	demoSubscriberName    = "Demo Subscriber %02d"
	demoWelcomeTemplate   = "Welcome"
	demoWelcomeContent    = "<h1>Welcome aboard</h1><p>Thanks for subscribing.</p>"
	demoDigestTemplate    = "Weekly digest"
	demoDigestContent     = "<p>Here is what happened this week.</p>"
	errorMessageSeedDemo  = "storage: seed demo data"
)

// SeedDemo creates a demo list with subscribers and a couple of templates.
// It is a no-op when any mailing list already exists and returns the list id.
func SeedDemo(database *gorm.DB) (string, error) {
	var existing model.MailingList
	findResult := database.Limit(1).Find(&existing)
	if findResult.Error != nil {
		return "", fmt.Errorf("%s: %w", errorMessageSeedDemo, findResult.Error)
	}
	if findResult.RowsAffected > 0 {
		return existing.ID, nil
	}

	list, listErr := model.NewMailingList(demoListName)
	if listErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageSeedDemo, listErr)
	}

	transactionErr := database.Transaction(func(transaction *gorm.DB) error {
		if err := transaction.Create(&list).Error; err != nil {
			return err
		}
		for index := 1; index <= demoSubscriberCount; index++ {
			subscriber, subscriberErr := model.NewSubscriber(model.SubscriberInput{
				ListID: list.ID,
				Email:  fmt.Sprintf(demoSubscriberPattern, index),
				Name:   fmt.Sprintf(demoSubscriberName, index),
			})
			if subscriberErr != nil {
				return subscriberErr
			}
			if err := transaction.Create(&subscriber).Error; err != nil {
				return err
			}
		}
		for _, input := range []model.TemplateInput{
			{Name: demoWelcomeTemplate, Content: demoWelcomeContent},
			{Name: demoDigestTemplate, Content: demoDigestContent},
		} {
			template, templateErr := model.NewTemplate(input)
			if templateErr != nil {
				return templateErr
			}
			if err := transaction.Create(&template).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if transactionErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageSeedDemo, transactionErr)
	}
	return list.ID, nil
}
