package constants

// EntityType classifies a value extracted from document text.
type EntityType string

const (
	EntityDate           EntityType = "DATE"
	EntityAmount         EntityType = "AMOUNT"
	EntityCurrency       EntityType = "CURRENCY"
	EntityPersonName     EntityType = "PERSON_NAME"
	EntityOrganization   EntityType = "ORGANIZATION"
	EntityAddress        EntityType = "ADDRESS"
	EntityPhone          EntityType = "PHONE"
	EntityEmail          EntityType = "EMAIL"
	EntityURL            EntityType = "URL"
	EntityDocumentNumber EntityType = "DOCUMENT_NUMBER"
	EntityLineItem       EntityType = "LINE_ITEM"
	EntityTotal          EntityType = "TOTAL"
	EntityTax            EntityType = "TAX"
	EntityDiscount       EntityType = "DISCOUNT"
)

// RelationType classifies an association between two entities.
type RelationType string

const (
	RelationItemPrice        RelationType = "ITEM_PRICE"
	RelationSubtotalTax      RelationType = "SUBTOTAL_TAX"
	RelationTaxTotal         RelationType = "TAX_TOTAL"
	RelationPersonID         RelationType = "PERSON_ID"
	RelationAddressComponent RelationType = "ADDRESS_COMPONENT"
	RelationDateTransaction  RelationType = "DATE_TRANSACTION"
)
