package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

func asCoordinate(v interface{}) (domain.Coordinate, bool) {
	switch c := v.(type) {
	case domain.Coordinate:
		return c, true
	case *domain.Coordinate:
		if c == nil {
			return domain.Coordinate{}, false
		}
		return *c, true
	}
	return domain.Coordinate{}, false
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, _ := asCoordinate(p.Source)
					return c.Latitude, nil
				},
			},
			"lon": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, _ := asCoordinate(p.Source)
					return c.Longitude, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, ok := asCoordinate(p.Source)
					if !ok || c.Name == nil {
						return nil, nil
					}
					return *c.Name, nil
				},
			},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"address":    &graphql.Field{Type: graphql.String},
			"clean_name": &graphql.Field{Type: graphql.String},
			"lat_lng":    &graphql.Field{Type: coordinateType},
			"name":       &graphql.Field{Type: graphql.String},
			"venue_id":   &graphql.Field{Type: graphql.String},
		},
	})

	linkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VenueLink",
		Fields: graphql.Fields{
			"href": &graphql.Field{Type: graphql.String},
			"text": &graphql.Field{Type: graphql.String},
		},
	})

	venueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Venue",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"name":             &graphql.Field{Type: graphql.String},
			"alternative_name": &graphql.Field{Type: graphql.String},
			"lat_lng":          &graphql.Field{Type: coordinateType},
			"phone":            &graphql.Field{Type: linkType},
			"url":              &graphql.Field{Type: linkType},
			"services":         &graphql.Field{Type: graphql.NewList(graphql.String)},
			"google_place_id":  &graphql.Field{Type: graphql.String},
		},
	})

	reviewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Review",
		Fields: graphql.Fields{
			"author_name":               &graphql.Field{Type: graphql.String},
			"rating":                    &graphql.Field{Type: graphql.Int},
			"relative_time_description": &graphql.Field{Type: graphql.String},
			"text":                      &graphql.Field{Type: graphql.String},
			"time":                      &graphql.Field{Type: graphql.Float},
		},
	})

	reviewsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Reviews",
		Fields: graphql.Fields{
			"reviews": &graphql.Field{Type: graphql.NewList(reviewType)},
			"average": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, ok := p.Source.(*domain.Reviews)
					if !ok || r.Ratings == nil {
						return nil, nil
					}
					return r.Ratings.Average, nil
				},
			},
		},
	})

	alertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Alert",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.Float},
			"type":     &graphql.Field{Type: graphql.String},
			"subtype":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelPlan",
		Fields: graphql.Fields{
			"route_name":          &graphql.Field{Type: graphql.String},
			"total_seconds":       &graphql.Field{Type: graphql.Int},
			"total_length_meters": &graphql.Field{Type: graphql.Int},
			"is_toll":             &graphql.Field{Type: graphql.Boolean},
			"is_fastest":          &graphql.Field{Type: graphql.Boolean},
			"toll_price":          &graphql.Field{Type: graphql.Float},
			"alerts":              &graphql.Field{Type: graphql.NewList(alertType)},
			"geo_path":            &graphql.Field{Type: graphql.NewList(coordinateType)},
		},
	})

	sampleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelSample",
		Fields: graphql.Fields{
			"id":                  &graphql.Field{Type: graphql.String},
			"route":               &graphql.Field{Type: graphql.String},
			"route_name":          &graphql.Field{Type: graphql.String},
			"total_seconds":       &graphql.Field{Type: graphql.Int},
			"total_length_meters": &graphql.Field{Type: graphql.Int},
			"is_toll":             &graphql.Field{Type: graphql.Boolean},
			"alert_count":         &graphql.Field{Type: graphql.Int},
			"sampled_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, ok := p.Source.(domain.TravelSample)
					if !ok {
						return nil, nil
					}
					return s.SampledAt.UTC().Format(time.RFC3339), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"geocode": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Search places near a locale (country code or \"lat,lon\")",
				Args: graphql.FieldConfigArgument{
					"query":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"locale":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc, err := domain.ParseLocale(p.Args["locale"].(string))
					if err != nil {
						return nil, err
					}
					return deps.Places.Geocode(p.Context, p.Args["query"].(string), loc, p.Args["radius_km"].(float64))
				},
			},
			"venue": &graphql.Field{
				Type:        venueType,
				Description: "Venue details by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Venue(p.Context, p.Args["id"].(string))
				},
			},
			"reviews": &graphql.Field{
				Type:        reviewsType,
				Description: "Reviews of a venue",
				Args: graphql.FieldConfigArgument{
					"venue_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.VenueReviews(p.Context, p.Args["venue_id"].(string))
				},
			},
			"plan": &graphql.Field{
				Type:        planType,
				Description: "Fastest route between two points",
				Args: graphql.FieldConfigArgument{
					"from_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.Coordinate{Latitude: p.Args["from_lat"].(float64), Longitude: p.Args["from_lon"].(float64)}
					to := domain.Coordinate{Latitude: p.Args["to_lat"].(float64), Longitude: p.Args["to_lon"].(float64)}
					return deps.Travel.Plan(p.Context, from, to)
				},
			},
			"latestSamples": &graphql.Field{
				Type:        graphql.NewList(sampleType),
				Description: "Newest sample of every watched route",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Samples == nil {
						return nil, fmt.Errorf("sample store not configured")
					}
					return deps.Samples.Latest(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
