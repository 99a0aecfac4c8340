package database

import (
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"pricewatch/internal/model"
)

type MongoStore struct {
	*mongo.Database
	client *mongo.Client
}

func ConnectMongo(ctx context.Context, dbURI string) (*MongoStore, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI))
	if err != nil {
		return nil, errors.Wrap(err, "ConnectMongo: error connecting")
	}
	db := c.Database(Name)

	indexes := map[string][]mongo.IndexModel{
		CollectionSources: {
			{Keys: bson.D{{Key: "product_id", Value: 1}}},
		},
		CollectionObservation: {
			{Keys: bson.D{{Key: "source_id", Value: 1}, {Key: "ts", Value: 1}}},
		},
		CollectionAlerts: {
			{Keys: bson.D{{Key: "source_id", Value: 1}}},
			{Keys: bson.D{{Key: "product_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err = db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			_ = c.Disconnect(ctx)
			return nil, errors.Wrapf(err, "ConnectMongo: error creating indexes of %s", coll)
		}
	}
	return &MongoStore{Database: db, client: c}, nil
}

func (db *MongoStore) replace(ctx context.Context, coll string, id string, doc any) error {
	_, err := db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "error saving %s: %s", coll, id)
}

func (db *MongoStore) ProductSave(ctx context.Context, p model.Product) error {
	return db.replace(ctx, CollectionProducts, p.ID, newProductRecord(p))
}

func (db *MongoStore) ProductDelete(ctx context.Context, id string) error {
	var sources []sourceRecord
	cur, err := db.Collection(CollectionSources).Find(ctx, bson.M{"product_id": id})
	if err != nil {
		return errors.Wrapf(err, "error finding Sources of ProductID: %s", id)
	}
	if err = cur.All(ctx, &sources); err != nil {
		return errors.Wrapf(err, "error decoding Sources of ProductID: %s", id)
	}
	sourceIDs := make([]string, len(sources))
	for i, s := range sources {
		sourceIDs[i] = s.ID
	}

	if _, err = db.Collection(CollectionObservation).DeleteMany(ctx, bson.M{"source_id": bson.M{"$in": sourceIDs}}); err != nil {
		return errors.Wrapf(err, "error deleting history of ProductID: %s", id)
	}
	if _, err = db.Collection(CollectionAlerts).DeleteMany(ctx, bson.M{"product_id": id}); err != nil {
		return errors.Wrapf(err, "error deleting Alerts of ProductID: %s", id)
	}
	if _, err = db.Collection(CollectionSources).DeleteMany(ctx, bson.M{"product_id": id}); err != nil {
		return errors.Wrapf(err, "error deleting Sources of ProductID: %s", id)
	}
	_, err = db.Collection(CollectionProducts).DeleteOne(ctx, bson.M{"_id": id})
	return errors.Wrapf(err, "error deleting ProductID: %s", id)
}

func (db *MongoStore) SourceSave(ctx context.Context, s model.Source) error {
	return db.replace(ctx, CollectionSources, s.ID, newSourceRecord(s))
}

func (db *MongoStore) SourceDelete(ctx context.Context, id string) error {
	if _, err := db.Collection(CollectionObservation).DeleteMany(ctx, bson.M{"source_id": id}); err != nil {
		return errors.Wrapf(err, "error deleting history of SourceID: %s", id)
	}
	if _, err := db.Collection(CollectionAlerts).DeleteMany(ctx, bson.M{"source_id": id}); err != nil {
		return errors.Wrapf(err, "error deleting Alerts of SourceID: %s", id)
	}
	_, err := db.Collection(CollectionSources).DeleteOne(ctx, bson.M{"_id": id})
	return errors.Wrapf(err, "error deleting SourceID: %s", id)
}

func (db *MongoStore) ObservationInsert(ctx context.Context, o model.PriceObservation) error {
	_, err := db.Collection(CollectionObservation).InsertOne(ctx, newObservationRecord(o))
	return errors.Wrapf(err, "error inserting PriceObservation: %+v", o)
}

func (db *MongoStore) AlertSave(ctx context.Context, a model.Alert) error {
	return db.replace(ctx, CollectionAlerts, a.ID, newAlertRecord(a))
}

func (db *MongoStore) AlertDelete(ctx context.Context, id string) error {
	_, err := db.Collection(CollectionAlerts).DeleteOne(ctx, bson.M{"_id": id})
	return errors.Wrapf(err, "error deleting AlertID: %s", id)
}

func (db *MongoStore) SettingGet(ctx context.Context, key string) (string, bool, error) {
	var s settingRecord
	err := db.Collection(CollectionSettings).FindOne(ctx, bson.M{"_id": key}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "error finding setting: %s", key)
	}
	return s.Value, true, nil
}

func (db *MongoStore) SettingSet(ctx context.Context, key string, value string) error {
	return db.replace(ctx, CollectionSettings, key, settingRecord{Key: key, Value: value})
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, opts ...*options.FindOptions) ([]T, error) {
	var out []T
	cur, err := coll.Find(ctx, bson.M{}, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor of %s", coll.Name())
	}
	if err = cur.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "error decoding all of %s", coll.Name())
	}
	return out, nil
}

func (db *MongoStore) Load(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{Settings: make(map[string]string)}

	products, err := findAll[productRecord](ctx, db.Collection(CollectionProducts))
	if err != nil {
		return snap, err
	}
	for _, r := range products {
		snap.Products = append(snap.Products, r.toModel())
	}

	sources, err := findAll[sourceRecord](ctx, db.Collection(CollectionSources))
	if err != nil {
		return snap, err
	}
	for _, r := range sources {
		snap.Sources = append(snap.Sources, r.toModel())
	}

	observations, err := findAll[observationRecord](ctx, db.Collection(CollectionObservation),
		options.Find().SetSort(bson.D{{Key: "source_id", Value: 1}, {Key: "ts", Value: 1}}))
	if err != nil {
		return snap, err
	}
	for _, r := range observations {
		snap.Observations = append(snap.Observations, r.toModel())
	}

	alerts, err := findAll[alertRecord](ctx, db.Collection(CollectionAlerts))
	if err != nil {
		return snap, err
	}
	for _, r := range alerts {
		snap.Alerts = append(snap.Alerts, r.toModel())
	}

	settings, err := findAll[settingRecord](ctx, db.Collection(CollectionSettings))
	if err != nil {
		return snap, err
	}
	for _, r := range settings {
		snap.Settings[r.Key] = r.Value
	}
	return snap, nil
}

func (db *MongoStore) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
