package server

// Server объединяет HTTP сервера отдельных сущностей
type Server struct {
	AuctionServer
	RatingServer
	FavouriteServer
}

func NewServer(
	auctionServer AuctionServer,
	ratingServer RatingServer,
	favouriteServer FavouriteServer,
) Server {
	return Server{
		AuctionServer:   auctionServer,
		RatingServer:    ratingServer,
		FavouriteServer: favouriteServer,
	}
}
