package content

// GROQ queries for each collection. The store orders by orderRank; the
// service sorts again in case it does not.
const (
	ProjectsQuery = `*[_type == "portfolioProject"] | order(orderRank asc) {
  _id,
  _type,
  title,
  slug,
  category,
  image,
  description,
  details,
  orderRank
}`

	VideosQuery = `*[_type == "aiFilmLabVideo"] | order(orderRank asc) {
  _id,
  _type,
  title,
  platform,
  subtitle,
  "videoFile": videoFile.asset->url,
  videoUrl,
  thumbnailImage,
  description,
  orderRank
}`

	ImagesQuery = `*[_type == "visualGenerationImage"] | order(orderRank asc) {
  _id,
  _type,
  title,
  platform,
  subtitle,
  image,
  is3D,
  description,
  prompt,
  orderRank
}`
)
