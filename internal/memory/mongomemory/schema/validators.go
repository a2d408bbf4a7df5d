package schema

import "go.mongodb.org/mongo-driver/bson"

// validatorFor returns the $jsonSchema validator document for the four
// collections that carry one, or nil for collections that don't.
// All validators run in "warn" mode: invalid documents still land, the
// server only logs a warning.
func validatorFor(collection string) bson.M {
	switch collection {
	case CollChunks:
		return bson.M{
			"$jsonSchema": bson.M{
				"bsonType": "object",
				"required": []string{FieldPath, FieldText, FieldHash, FieldUpdatedAt},
			},
		}
	case CollKBDocuments:
		return bson.M{
			"$jsonSchema": bson.M{
				"bsonType": "object",
				"required": []string{FieldHash, FieldTitle, FieldSource, FieldUpdatedAt},
				"properties": bson.M{
					FieldSource: bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"type": bson.M{
								"enum": []string{"file", "url", "manual", "api"},
							},
						},
					},
				},
			},
		}
	case CollKBChunks:
		return bson.M{
			"$jsonSchema": bson.M{
				"bsonType": "object",
				"required": []string{FieldDocID, FieldPath, FieldText, FieldStartLine, FieldEndLine, FieldUpdatedAt},
				"properties": bson.M{
					FieldDocID: bson.M{"bsonType": "string"},
				},
			},
		}
	case CollStructured:
		return bson.M{
			"$jsonSchema": bson.M{
				"bsonType": "object",
				"required": []string{FieldType, FieldKey, FieldValue, FieldUpdatedAt},
				"properties": bson.M{
					FieldConfidence: bson.M{
						"bsonType":    "double",
						"minimum":     0,
						"maximum":     1,
					},
				},
			},
		}
	default:
		return nil
	}
}
