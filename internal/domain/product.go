package domain

import (
	"sort"
	"strings"
)

// ProductKey identifies a purchasable product variant.
type ProductKey string

const (
	ProductAirtimeMTN       ProductKey = "AIRTIME_MTN"
	ProductAirtimeTelecel   ProductKey = "AIRTIME_TELECEL"
	ProductAirtimeAT        ProductKey = "AIRTIME_AT"
	ProductDataBundle       ProductKey = "DATA_BUNDLE"
	ProductTelecelData      ProductKey = "TELECEL_DATA"
	ProductBroadband        ProductKey = "BROADBAND"
	ProductTelecelBroadband ProductKey = "TELECEL_BROADBAND"
	ProductElectricity      ProductKey = "ELECTRICITY"
	ProductWater            ProductKey = "WATER"
	ProductDSTV             ProductKey = "DSTV"
	ProductGOtv             ProductKey = "GOTV"
	ProductStarTimes        ProductKey = "STARTIMES"
)

// Field names accepted in a purchase's extra fields.
const (
	FieldBundle          = "bundle"
	FieldBroadbandNumber = "broadband_number"
	FieldMeterNumber     = "meter_number"
	FieldPhoneNumber     = "phone_number"
)

// ProductDescriptor parameterises the purchase engine for one product variant.
type ProductDescriptor struct {
	Key ProductKey `json:"key"`
	// ServiceKey indexes the provider config's services map.
	ServiceKey               string   `json:"service_key"`
	DefaultProviderServiceID string   `json:"default_provider_service_id"`
	RequiredFields           []string `json:"required_fields"`
	Channel                  Channel  `json:"channel"`
	ReferencePrefix          string   `json:"reference_prefix"`
	ServiceType              string   `json:"service_type"`
	Description              string   `json:"description"`
	// ExtraDataField is forwarded to the provider as Extradata.Bundle.
	ExtraDataField string `json:"extra_data_field,omitempty"`
	// LookupFields are forwarded as query parameters on pre-purchase lookups.
	LookupFields map[string]string `json:"lookup_fields,omitempty"`
	Lookup       bool              `json:"supports_lookup"`
}

var catalog = map[ProductKey]ProductDescriptor{
	ProductAirtimeMTN: {
		Key: ProductAirtimeMTN, ServiceKey: "AIRTIME", DefaultProviderServiceID: "fdd76c884e614b1c8f669a3207b09a98",
		Channel: ChannelMomo, ReferencePrefix: "AIR", ServiceType: "AIRTIME", Description: "MTN airtime top-up for",
	},
	ProductAirtimeTelecel: {
		Key: ProductAirtimeTelecel, ServiceKey: "AIRTIME", DefaultProviderServiceID: "f4be83ad74c742e185224fdae1304800",
		Channel: ChannelMomo, ReferencePrefix: "AIR", ServiceType: "AIRTIME", Description: "Telecel airtime top-up for",
	},
	ProductAirtimeAT: {
		Key: ProductAirtimeAT, ServiceKey: "AIRTIME", DefaultProviderServiceID: "dae2142eb5a14c298eace60240c09e4b",
		Channel: ChannelMomo, ReferencePrefix: "AIR", ServiceType: "AIRTIME", Description: "AT airtime top-up for",
	},
	ProductDataBundle: {
		Key: ProductDataBundle, ServiceKey: "DATA_BUNDLE", DefaultProviderServiceID: "b230733cd56b4a0fad820e39f66bc27c",
		RequiredFields: []string{FieldBundle}, ExtraDataField: FieldBundle, Lookup: true,
		Channel: ChannelMomo, ReferencePrefix: "DAT", ServiceType: "DATA_BUNDLE", Description: "Data bundle purchase for",
	},
	ProductTelecelData: {
		Key: ProductTelecelData, ServiceKey: "TELECEL_DATA", DefaultProviderServiceID: "fa27127ba039455da04a2ac8a1613e00",
		RequiredFields: []string{FieldBundle}, ExtraDataField: FieldBundle, Lookup: true,
		Channel: ChannelMomo, ReferencePrefix: "TDA", ServiceType: "TELECEL_DATA", Description: "Telecel data bundle purchase for",
	},
	ProductBroadband: {
		Key: ProductBroadband, ServiceKey: "BROADBAND", DefaultProviderServiceID: "39fbe120e9b542899eb7dad526fb04b9",
		RequiredFields: []string{FieldBundle}, ExtraDataField: FieldBundle, Lookup: true,
		Channel: ChannelMobile, ReferencePrefix: "BRO", ServiceType: "BROADBAND", Description: "Broadband bundle purchase for",
	},
	ProductTelecelBroadband: {
		Key: ProductTelecelBroadband, ServiceKey: "TELECEL_BROADBAND", DefaultProviderServiceID: "b9a1aa246ba748f9ba01ca4cdbb3d1d3",
		RequiredFields: []string{FieldBroadbandNumber}, ExtraDataField: FieldBroadbandNumber, Lookup: true,
		Channel: ChannelMobile, ReferencePrefix: "TEL", ServiceType: "TELECEL_BROADBAND", Description: "Telecel broadband top-up for",
	},
	ProductElectricity: {
		Key: ProductElectricity, ServiceKey: "ELECTRICITY", DefaultProviderServiceID: "e6d6bac062b5499cb1ece1ac3d742a84",
		RequiredFields: []string{FieldMeterNumber}, ExtraDataField: FieldMeterNumber, Lookup: true,
		Channel: ChannelUtility, ReferencePrefix: "ELE", ServiceType: "ELECTRICITY", Description: "Electricity top-up for",
	},
	ProductWater: {
		Key: ProductWater, ServiceKey: "GWCL", DefaultProviderServiceID: "6c1e8a82d2e84feeb8bfd6be2790d71d",
		RequiredFields: []string{FieldBundle}, ExtraDataField: FieldBundle, Lookup: true,
		LookupFields: map[string]string{FieldPhoneNumber: "mobile"},
		Channel: ChannelUtility, ReferencePrefix: "WAT", ServiceType: "WATER", Description: "Water bill payment for",
	},
	ProductDSTV: {
		Key: ProductDSTV, ServiceKey: "DSTV", DefaultProviderServiceID: "297a96656b5846ad8b00d5d41b256ea7", Lookup: true,
		Channel: ChannelUtility, ReferencePrefix: "DST", ServiceType: "DSTV", Description: "DSTV subscription for",
	},
	ProductGOtv: {
		Key: ProductGOtv, ServiceKey: "GOTV", DefaultProviderServiceID: "e6ceac7f3880435cb30b048e9617eb41", Lookup: true,
		Channel: ChannelUtility, ReferencePrefix: "GOT", ServiceType: "GOTV", Description: "GOtv subscription for",
	},
	ProductStarTimes: {
		Key: ProductStarTimes, ServiceKey: "STARTIMES", DefaultProviderServiceID: "6598652d34ea4112949c93c079c501ce", Lookup: true,
		Channel: ChannelUtility, ReferencePrefix: "STA", ServiceType: "STARTIMES", Description: "StarTimes subscription for",
	},
}

// LookupProduct finds a descriptor by key. Matching ignores case and accepts dashes.
func LookupProduct(key string) (ProductDescriptor, bool) {
	normalized := ProductKey(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(key), "-", "_")))
	d, ok := catalog[normalized]
	return d, ok
}

// Products returns the catalog ordered by key.
func Products() []ProductDescriptor {
	out := make([]ProductDescriptor, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// MissingFields returns the required fields absent or blank in fields.
func (d ProductDescriptor) MissingFields(fields map[string]string) []string {
	var missing []string
	for _, name := range d.RequiredFields {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// ExtraData builds the provider Extradata block, or nil when the product has none.
func (d ProductDescriptor) ExtraData(fields map[string]string) map[string]string {
	if d.ExtraDataField == "" {
		return nil
	}
	v := strings.TrimSpace(fields[d.ExtraDataField])
	if v == "" {
		return nil
	}
	return map[string]string{"Bundle": v}
}

// ServiceID picks the provider-configured service id, falling back to the default.
func (d ProductDescriptor) ServiceID(services map[string]string) string {
	if id := strings.TrimSpace(services[d.ServiceKey]); id != "" {
		return id
	}
	return d.DefaultProviderServiceID
}

// DescribeFor renders a ledger description for the destination.
func (d ProductDescriptor) DescribeFor(destination string) string {
	return d.Description + " " + destination
}
