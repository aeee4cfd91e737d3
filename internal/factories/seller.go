package factories

import (
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

type SellerFactory struct {
	fake faker.Faker
}

func NewSellerFactory(fake faker.Faker) *SellerFactory {
	return &SellerFactory{fake: fake}
}

func (sf *SellerFactory) CreateSeller(region Region, zip string) models.Seller {
	return models.Seller{
		ID:            cuid.New(),
		ZipCodePrefix: zip,
		City:          region.Capital,
		State:         region.State,
	}
}

// HandlingDays is how long the seller typically takes to hand an order to
// the carrier. A few sellers are slow.
func (sf *SellerFactory) HandlingDays() float64 {
	if sf.fake.IntBetween(1, 100) <= 10 {
		return sf.fake.Float64(1, 5, 9)
	}
	return sf.fake.Float64(1, 1, 3)
}
