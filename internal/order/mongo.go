package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/seeds-admin/internal/catalog"
)

// MongoLedger stores orders as documents in a MongoDB collection.
type MongoLedger struct {
	Collection *mongo.Collection
}

type productDocument struct {
	ID            string                `bson:"id"`
	Name          string                `bson:"name"`
	Category      string                `bson:"category"`
	Description   string                `bson:"description,omitempty"`
	ImageURL      string                `bson:"imageUrl,omitempty"`
	Price         primitive.Decimal128  `bson:"price"`
	MRP           *primitive.Decimal128 `bson:"mrp,omitempty"`
	OfferPercent  *primitive.Decimal128 `bson:"offerPercent,omitempty"`
	BagWeight     *float64              `bson:"bagWeight,omitempty"`
	Germination   *float64              `bson:"germination,omitempty"`
	YieldDuration *int                  `bson:"yieldDuration,omitempty"`
	Season        string                `bson:"season,omitempty"`
	Active        bool                  `bson:"isActive"`
}

type itemDocument struct {
	ID       string               `bson:"id"`
	Product  productDocument      `bson:"product"`
	Quantity int                  `bson:"quantity"`
	Price    primitive.Decimal128 `bson:"price"`
}

type customerDocument struct {
	Name          string                `bson:"name"`
	MobileNo      string                `bson:"mobileNo"`
	Address       string                `bson:"address"`
	PaymentMethod string                `bson:"paymentMethod"`
	FinalDiscount *primitive.Decimal128 `bson:"finalDiscount,omitempty"`
}

type orderDocument struct {
	ID              primitive.ObjectID    `bson:"_id,omitempty"`
	UserID          string                `bson:"userId"`
	OrderedBy       string                `bson:"orderedBy"`
	Items           []itemDocument        `bson:"items"`
	OrderDate       time.Time             `bson:"orderDate"`
	Status          string                `bson:"status"`
	CustomerDetails *customerDocument     `bson:"customerDetails,omitempty"`
	TotalAmount     *primitive.Decimal128 `bson:"totalAmount,omitempty"`
	Discount        *primitive.Decimal128 `bson:"discount,omitempty"`
	FinalAmount     *primitive.Decimal128 `bson:"finalAmount,omitempty"`
	NeedsReview     bool                  `bson:"needsReview"`
}

// EnsureIndexes creates the index backing ListOrders. It is idempotent.
func (l MongoLedger) EnsureIndexes(ctx context.Context) error {
	_, err := l.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderDate", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("orders_by_date"),
	})
	if err != nil {
		return fmt.Errorf("order: create index: %w", err)
	}
	return nil
}

func (l MongoLedger) CreateOrder(ctx context.Context, o Order) (string, error) {
	doc, err := toDocument(o)
	if err != nil {
		return "", err
	}
	res, err := l.Collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("order: insert document: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("order: unexpected inserted id %T", res.InsertedID)
	}
	return id.Hex(), nil
}

func (l MongoLedger) GetOrder(ctx context.Context, id string) (Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Order{}, ErrNotFound
	}
	var doc orderDocument
	err = l.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: find document: %w", err)
	}
	return fromDocument(doc)
}

func (l MongoLedger) ListOrders(ctx context.Context) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := l.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("order: find documents: %w", err)
	}
	defer cur.Close(ctx)
	out := []Order{}
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("order: decode document: %w", err)
		}
		o, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("order: iterate documents: %w", err)
	}
	return out, nil
}

func (l MongoLedger) UpdateOrderStatus(ctx context.Context, id string, from, to Status) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := l.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to)}})
	if err != nil {
		return fmt.Errorf("order: update document: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := l.Collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("order: update document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

func toDocument(o Order) (orderDocument, error) {
	doc := orderDocument{
		UserID:      o.UserID,
		OrderedBy:   o.OrderedBy,
		OrderDate:   o.OrderDate.UTC(),
		Status:      string(o.Status),
		NeedsReview: o.NeedsReview,
	}
	if o.Items != nil {
		doc.Items = make([]itemDocument, 0, len(o.Items))
	}
	for _, it := range o.Items {
		product, err := toProductDocument(it.Product)
		if err != nil {
			return orderDocument{}, err
		}
		price, err := toDecimal128(it.Price)
		if err != nil {
			return orderDocument{}, err
		}
		doc.Items = append(doc.Items, itemDocument{
			ID:       it.ID,
			Product:  product,
			Quantity: it.Quantity,
			Price:    price,
		})
	}
	if cd := o.CustomerDetails; cd != nil {
		doc.CustomerDetails = &customerDocument{
			Name:          cd.Name,
			MobileNo:      cd.MobileNo,
			Address:       cd.Address,
			PaymentMethod: string(cd.PaymentMethod),
		}
		var err error
		if doc.CustomerDetails.FinalDiscount, err = toNullDecimal128(cd.FinalDiscount); err != nil {
			return orderDocument{}, err
		}
	}
	var err error
	if doc.TotalAmount, err = toNullDecimal128(o.TotalAmount); err != nil {
		return orderDocument{}, err
	}
	if doc.Discount, err = toNullDecimal128(o.Discount); err != nil {
		return orderDocument{}, err
	}
	if doc.FinalAmount, err = toNullDecimal128(o.FinalAmount); err != nil {
		return orderDocument{}, err
	}
	return doc, nil
}

func fromDocument(doc orderDocument) (Order, error) {
	o := Order{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID,
		OrderedBy:   doc.OrderedBy,
		OrderDate:   doc.OrderDate,
		Status:      Status(doc.Status),
		NeedsReview: doc.NeedsReview,
	}
	if doc.Items != nil {
		o.Items = make([]CartItem, 0, len(doc.Items))
	}
	for _, it := range doc.Items {
		product, err := fromProductDocument(it.Product)
		if err != nil {
			return Order{}, err
		}
		item := CartItem{ID: it.ID, Product: product, Quantity: it.Quantity}
		price, err := decimal.NewFromString(it.Price.String())
		if err != nil {
			return Order{}, fmt.Errorf("order: decode price: %w", err)
		}
		item.Price = price
		o.Items = append(o.Items, item)
	}
	if cd := doc.CustomerDetails; cd != nil {
		o.CustomerDetails = &CustomerDetails{
			Name:          cd.Name,
			MobileNo:      cd.MobileNo,
			Address:       cd.Address,
			PaymentMethod: PaymentMethod(cd.PaymentMethod),
		}
		var err error
		if o.CustomerDetails.FinalDiscount, err = fromNullDecimal128(cd.FinalDiscount); err != nil {
			return Order{}, err
		}
	}
	var err error
	if o.TotalAmount, err = fromNullDecimal128(doc.TotalAmount); err != nil {
		return Order{}, err
	}
	if o.Discount, err = fromNullDecimal128(doc.Discount); err != nil {
		return Order{}, err
	}
	if o.FinalAmount, err = fromNullDecimal128(doc.FinalAmount); err != nil {
		return Order{}, err
	}
	return o, nil
}

func toProductDocument(p catalog.Product) (productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDocument{}, err
	}
	doc := productDocument{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Price:         price,
		BagWeight:     p.BagWeight,
		Germination:   p.Germination,
		YieldDuration: p.YieldDuration,
		Season:        string(p.Season),
		Active:        p.Active,
	}
	if doc.MRP, err = toNullDecimal128(p.MRP); err != nil {
		return productDocument{}, err
	}
	if doc.OfferPercent, err = toNullDecimal128(p.OfferPercent); err != nil {
		return productDocument{}, err
	}
	return doc, nil
}

func fromProductDocument(doc productDocument) (catalog.Product, error) {
	price, err := decimal.NewFromString(doc.Price.String())
	if err != nil {
		return catalog.Product{}, fmt.Errorf("order: decode product price: %w", err)
	}
	p := catalog.Product{
		ID:            doc.ID,
		Name:          doc.Name,
		Category:      doc.Category,
		Description:   doc.Description,
		ImageURL:      doc.ImageURL,
		Price:         price,
		BagWeight:     doc.BagWeight,
		Germination:   doc.Germination,
		YieldDuration: doc.YieldDuration,
		Season:        catalog.Season(doc.Season),
		Active:        doc.Active,
	}
	if p.MRP, err = fromNullDecimal128(doc.MRP); err != nil {
		return catalog.Product{}, err
	}
	if p.OfferPercent, err = fromNullDecimal128(doc.OfferPercent); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("order: encode amount %s: %w", d, err)
	}
	return v, nil
}

func toNullDecimal128(d decimal.NullDecimal) (*primitive.Decimal128, error) {
	if !d.Valid {
		return nil, nil
	}
	v, err := toDecimal128(d.Decimal)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fromNullDecimal128(v *primitive.Decimal128) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("order: decode amount: %w", err)
	}
	return decimal.NewNullDecimal(d), nil
}
