package factories

import (
	"strings"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

type CustomerFactory struct {
	fake faker.Faker
}

func NewCustomerFactory(fake faker.Faker) *CustomerFactory {
	return &CustomerFactory{fake: fake}
}

// CreateCustomer makes a customer in region. Most customers live in the
// capital; the rest get a generated town name.
func (cf *CustomerFactory) CreateCustomer(region Region, zip string) models.Customer {
	city := region.Capital
	if cf.fake.IntBetween(1, 10) > 6 {
		city = strings.ToLower(cf.fake.Address().City())
	}
	return models.Customer{
		ID:            cuid.New(),
		UniqueID:      cuid.New(),
		ZipCodePrefix: zip,
		City:          city,
		State:         region.State,
	}
}
