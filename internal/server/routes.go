package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"campus_auction/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) { //nolint:funlen
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", handler(s.getV1Items))
				r.Post("/", handler(s.postV1Item))

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", handler(s.getV1Item))
					r.Get("/bids", handler(s.getV1ItemBids))
					r.Get("/bids/highest", handler(s.getV1ItemHighestBid))
					r.Post("/bids", handler(s.postV1ItemBid))
					r.Post("/buyout", handler(s.postV1ItemBuyout))
					r.Put("/autobid", handler(s.putV1ItemAutobid))
					r.Get("/autobids", handler(s.getV1ItemAutobids))
					r.Get("/transaction", handler(s.getV1ItemTransaction))
				})
			})

			r.Route("/transactions/{id}", func(r chi.Router) {
				r.Get("/", handler(s.getV1Transaction))
				r.Post("/rating", handler(s.postV1TransactionRating))
			})

			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/balance", handler(s.getV1UserBalance))
				r.Get("/rating", handler(s.getV1UserRating))

				r.Route("/favourites", func(r chi.Router) {
					r.Get("/", handler(s.getV1UserFavourites))
					r.Post("/", handler(s.postV1UserFavourite))
					r.Delete("/{itemId}", handler(s.deleteV1UserFavourite))
				})
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, httpError(err))
		}
	}
}
